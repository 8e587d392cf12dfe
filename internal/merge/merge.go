// ABOUTME: Deterministic merging of runner sub-results into one analysis report.
// ABOUTME: Deduplicates findings, aggregates confidence and recommendations, and derives the risk score.

package merge

import (
	"sort"
	"time"

	"github.com/tbraun92/contract-sentinel/internal/types"
)

// risk score deductions per deduplicated finding severity
const (
	maxRiskScore      = 100.0
	criticalDeduction = 25.0
	highDeduction     = 15.0
	mediumDeduction   = 8.0
	lowDeduction      = 3.0
)

// Merge combines the sub-results of one job into a well-formed report. It is
// a pure function of its inputs: same results, same report (modulo timestamp).
func Merge(address string, network types.Network, results map[types.AnalysisKind]types.SubResult) *types.AnalysisReport {
	report := &types.AnalysisReport{
		Timestamp:       time.Now().UTC(),
		ContractAddress: address,
		Network:         network,
		Vulnerabilities: []types.Vulnerability{},
		Recommendations: []string{},
		SubAnalyses:     results,
	}

	ordered := orderedResults(results)

	var successes []types.SubResult
	for _, r := range ordered {
		if r.OK {
			successes = append(successes, r)
		}
	}

	if len(successes) == 0 {
		// Every runner failed: surface the incompleteness explicitly instead
		// of implying a safe contract through a high score.
		report.Incomplete = true
		report.OverallRiskScore = 0
		return report
	}

	report.Vulnerabilities = dedupe(collectVulnerabilities(ordered))
	sortBySeverity(report.Vulnerabilities)

	report.ConfidenceScore = meanConfidence(successes)
	report.Recommendations = collectRecommendations(ordered, report.Vulnerabilities)
	report.Summary = tally(report.Vulnerabilities)
	report.OverallRiskScore = riskScore(results, report.Vulnerabilities)

	return report
}

// orderedResults fixes iteration order by kind so dedup keep-first and
// recommendation ordering are deterministic.
func orderedResults(results map[types.AnalysisKind]types.SubResult) []types.SubResult {
	kinds := []types.AnalysisKind{types.KindStatic, types.KindDynamic, types.KindRAG, types.KindGas}
	ordered := make([]types.SubResult, 0, len(results))
	for _, k := range kinds {
		if r, ok := results[k]; ok {
			ordered = append(ordered, r)
		}
	}
	return ordered
}

// collectVulnerabilities pulls findings out of every Success payload. Static
// results carry typed findings; generative payloads may carry loosely shaped
// maps from decoded JSON.
func collectVulnerabilities(ordered []types.SubResult) []types.Vulnerability {
	var all []types.Vulnerability
	for _, r := range ordered {
		if !r.OK {
			continue
		}
		switch vulns := r.Payload["vulnerabilities"].(type) {
		case []types.Vulnerability:
			all = append(all, vulns...)
		case []any:
			for _, v := range vulns {
				if m, ok := v.(map[string]any); ok {
					all = append(all, vulnerabilityFromMap(m))
				}
			}
		}
	}
	return all
}

func vulnerabilityFromMap(m map[string]any) types.Vulnerability {
	v := types.Vulnerability{
		Title:          stringField(m, "title"),
		Description:    stringField(m, "description"),
		Location:       stringField(m, "location"),
		Recommendation: stringField(m, "recommendation"),
		Category:       stringField(m, "category"),
	}
	switch types.Severity(stringField(m, "severity")) {
	case types.SeverityCritical:
		v.Severity = types.SeverityCritical
	case types.SeverityHigh:
		v.Severity = types.SeverityHigh
	case types.SeverityMedium:
		v.Severity = types.SeverityMedium
	case types.SeverityLow:
		v.Severity = types.SeverityLow
	default:
		v.Severity = types.SeverityInfo
	}
	return v
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// dedupe keeps the first-seen finding per (title, location) pair.
func dedupe(vulns []types.Vulnerability) []types.Vulnerability {
	seen := make(map[[2]string]bool, len(vulns))
	out := make([]types.Vulnerability, 0, len(vulns))
	for _, v := range vulns {
		key := [2]string{v.Title, v.Location}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}

// sortBySeverity orders critical first, stable within a tier.
func sortBySeverity(vulns []types.Vulnerability) {
	sort.SliceStable(vulns, func(i, j int) bool {
		return vulns[i].Severity.Rank() < vulns[j].Severity.Rank()
	})
}

func meanConfidence(successes []types.SubResult) float64 {
	if len(successes) == 0 {
		return 0
	}
	var sum float64
	for _, r := range successes {
		sum += r.Confidence
	}
	return sum / float64(len(successes))
}

// collectRecommendations gathers distinct textual suggestions in first-
// appearance order: finding recommendations first, then payload-level
// recommendation and optimization lists.
func collectRecommendations(ordered []types.SubResult, vulns []types.Vulnerability) []string {
	seen := make(map[string]bool)
	out := []string{}

	add := func(s string) {
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
	}

	for _, v := range vulns {
		add(v.Recommendation)
	}

	for _, r := range ordered {
		if !r.OK {
			continue
		}
		for _, key := range []string{"recommendations", "optimizations"} {
			switch list := r.Payload[key].(type) {
			case []string:
				for _, s := range list {
					add(s)
				}
			case []any:
				for _, item := range list {
					if s, ok := item.(string); ok {
						add(s)
					}
				}
			}
		}
	}

	return out
}

func tally(vulns []types.Vulnerability) types.SeveritySummary {
	var s types.SeveritySummary
	for _, v := range vulns {
		switch v.Severity {
		case types.SeverityCritical:
			s.Critical++
		case types.SeverityHigh:
			s.High++
		case types.SeverityMedium:
			s.Medium++
		case types.SeverityLow:
			s.Low++
		default:
			s.Info++
		}
	}
	s.Total = len(vulns)
	return s
}

// riskScore starts at 100, caps at the scaled static sub-score when present,
// and deducts per deduplicated finding. More or severer findings can only
// lower the score.
func riskScore(results map[types.AnalysisKind]types.SubResult, vulns []types.Vulnerability) float64 {
	score := maxRiskScore

	if static, ok := results[types.KindStatic]; ok && static.OK {
		if sub, ok := static.Payload["security_score"].(float64); ok {
			if scaled := sub * 10; scaled < score {
				score = scaled
			}
		}
	}

	for _, v := range vulns {
		switch v.Severity {
		case types.SeverityCritical:
			score -= criticalDeduction
		case types.SeverityHigh:
			score -= highDeduction
		case types.SeverityMedium:
			score -= mediumDeduction
		case types.SeverityLow:
			score -= lowDeduction
		}
	}

	if score < 0 {
		score = 0
	}
	return score
}
