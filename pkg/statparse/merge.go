package statparse

// Merge reconciles the parse results of one upload batch, in upload order,
// into a single record. Per key: the first result (in order) with label
// confidence wins; failing that, the first with position confidence; failing
// that the key stays absent. Values are never compared against each other, so
// a same-confidence tie is broken purely by upload order. That makes Merge
// deliberately non-commutative: first uploaded wins. The player name comes
// from the first result that has one.
//
// Merge(nil) and Merge([]ParseResult{}) return the empty record. The inputs
// are never mutated.
func Merge(results []ParseResult) ParseResult {
	merged := NewParseResult()
	for _, key := range AllStatKeys {
		var (
			bestVal  int64
			bestConf Confidence
			found    bool
		)
		for _, r := range results {
			conf, ok := r.Confidence[key]
			if !ok {
				continue
			}
			if !found || conf.rank() > bestConf.rank() {
				bestVal = r.Stats[key]
				bestConf = conf
				found = true
				if conf == ConfidenceLabel {
					break // nothing outranks label, earlier results already scanned
				}
			}
		}
		if found {
			merged.Stats[key] = bestVal
			merged.Confidence[key] = bestConf
		}
	}
	for _, r := range results {
		if r.PlayerName != nil {
			merged.PlayerName = r.PlayerName
			break
		}
	}
	return merged
}
