package quiz

// History reads are served from memory after the first ReadAll; appends
// patch the cached list and stats instead of re-reading the store.

func (s *Service) getCachedHistory() ([]HistoryRecord, bool) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	if !s.historyLoaded {
		return nil, false
	}
	return copyRecords(s.historyCache), true
}

func (s *Service) historyGeneration() int {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	return s.historyGen
}

// setCachedHistory stores a read taken at generation gen. It is skipped when
// the cache is already loaded or an append landed after the read started.
func (s *Service) setCachedHistory(records []HistoryRecord, gen int) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	if s.historyLoaded || s.historyGen != gen {
		return
	}
	s.historyCache = copyRecords(records)
	s.historyLoaded = true
	s.statsCache = nil
}

func (s *Service) getCachedStats() (map[string]DifficultyStats, bool) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	if s.statsCache == nil {
		return nil, false
	}
	return copyStats(s.statsCache), true
}

func (s *Service) setCachedStats(stats map[string]DifficultyStats, gen int) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	if s.statsCache != nil || s.historyGen != gen {
		return
	}
	s.statsCache = copyStats(stats)
}

func (s *Service) updateCachesAfterAppend(record HistoryRecord) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	s.historyGen++
	// Only patch what a previous read already materialized; anything else is
	// rebuilt from the store on demand.
	if s.historyLoaded {
		s.historyCache = append(s.historyCache, record)
	}
	if s.statsCache != nil {
		addToStats(s.statsCache, record)
	}
}

func copyRecords(records []HistoryRecord) []HistoryRecord {
	out := make([]HistoryRecord, len(records))
	copy(out, records)
	return out
}

func copyStats(stats map[string]DifficultyStats) map[string]DifficultyStats {
	out := make(map[string]DifficultyStats, len(stats))
	for key, value := range stats {
		out[key] = value
	}
	return out
}
