package search

// BuildSearchBody builds the Elasticsearch query body for a keyword
// search, ported from build_search_body in
// original_source/app/search_api.py: a multi_match across title/h1/
// meta_description/content with field boosts, a content highlight, and
// a ranking_score-first sort with missing values pushed last.
func BuildSearchBody(query string) map[string]interface{} {
	return map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query": query,
				"fields": []string{
					"title^3",
					"h1^2",
					"meta_description^1.5",
					"content",
				},
			},
		},
		"highlight": map[string]interface{}{
			"fields": map[string]interface{}{
				"content": map[string]interface{}{},
			},
		},
		"sort": []map[string]interface{}{
			{"ranking_score": map[string]interface{}{"order": "desc", "missing": "_last"}},
			{"_score": map[string]interface{}{"order": "desc"}},
		},
	}
}
