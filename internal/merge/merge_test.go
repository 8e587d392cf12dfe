// ABOUTME: Unit tests for the result merger.
// ABOUTME: Covers deduplication, severity ordering, confidence aggregation, scoring monotonicity, and total failure.

package merge

import (
	"testing"

	"github.com/tbraun92/contract-sentinel/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAddress = "0x1234567890abcdef1234567890abcdef12345678"

func staticResult(score float64, vulns ...types.Vulnerability) types.SubResult {
	payload := map[string]any{"security_score": score}
	if len(vulns) > 0 {
		payload["vulnerabilities"] = vulns
	}
	return types.Success(types.KindStatic, payload, 0.85)
}

func TestMergeDeduplicatesByTitleAndLocation(t *testing.T) {
	shared := types.Vulnerability{
		Title:    "Delegatecall usage",
		Severity: types.SeverityHigh,
		Location: "line 12",
	}

	results := map[types.AnalysisKind]types.SubResult{
		types.KindStatic: staticResult(8.0, shared),
		types.KindRAG: types.Success(types.KindRAG, map[string]any{
			"vulnerabilities": []any{
				map[string]any{"title": "Delegatecall usage", "severity": "high", "location": "line 12"},
				map[string]any{"title": "Delegatecall usage", "severity": "high", "location": "line 40"},
			},
		}, 0.8),
	}

	report := Merge(testAddress, types.NetworkEthereum, results)

	// identical (title, location) collapses; different location survives
	require.Len(t, report.Vulnerabilities, 2)
	assert.Equal(t, "line 12", report.Vulnerabilities[0].Location)
	assert.Equal(t, "line 40", report.Vulnerabilities[1].Location)
}

func TestMergeSeverityOrdering(t *testing.T) {
	results := map[types.AnalysisKind]types.SubResult{
		types.KindStatic: staticResult(4.0,
			types.Vulnerability{Title: "low finding", Severity: types.SeverityLow, Location: "line 1"},
			types.Vulnerability{Title: "critical finding", Severity: types.SeverityCritical, Location: "line 2"},
			types.Vulnerability{Title: "medium finding", Severity: types.SeverityMedium, Location: "line 3"},
		),
	}

	report := Merge(testAddress, types.NetworkEthereum, results)

	require.Len(t, report.Vulnerabilities, 3)
	assert.Equal(t, types.SeverityCritical, report.Vulnerabilities[0].Severity)
	assert.Equal(t, types.SeverityMedium, report.Vulnerabilities[1].Severity)
	assert.Equal(t, types.SeverityLow, report.Vulnerabilities[2].Severity)
}

func TestMergeStableWithinSeverityTier(t *testing.T) {
	results := map[types.AnalysisKind]types.SubResult{
		types.KindStatic: staticResult(6.0,
			types.Vulnerability{Title: "first high", Severity: types.SeverityHigh, Location: "line 1"},
			types.Vulnerability{Title: "second high", Severity: types.SeverityHigh, Location: "line 2"},
		),
	}

	report := Merge(testAddress, types.NetworkEthereum, results)

	require.Len(t, report.Vulnerabilities, 2)
	assert.Equal(t, "first high", report.Vulnerabilities[0].Title)
	assert.Equal(t, "second high", report.Vulnerabilities[1].Title)
}

func TestMergeConfidenceIsMeanOfSuccesses(t *testing.T) {
	results := map[types.AnalysisKind]types.SubResult{
		types.KindStatic:  types.Success(types.KindStatic, map[string]any{"security_score": 10.0}, 0.9),
		types.KindDynamic: types.Success(types.KindDynamic, map[string]any{"status": true}, 0.7),
		types.KindRAG:     types.Failure(types.KindRAG, types.ReasonServiceError, "down"),
	}

	report := Merge(testAddress, types.NetworkEthereum, results)

	assert.InDelta(t, 0.8, report.ConfidenceScore, 0.0001)
	assert.False(t, report.Incomplete)
}

func TestMergeRiskScoreMonotonicity(t *testing.T) {
	smaller := map[types.AnalysisKind]types.SubResult{
		types.KindStatic: staticResult(8.0,
			types.Vulnerability{Title: "a", Severity: types.SeverityMedium, Location: "line 1"},
		),
	}
	larger := map[types.AnalysisKind]types.SubResult{
		types.KindStatic: staticResult(6.0,
			types.Vulnerability{Title: "a", Severity: types.SeverityMedium, Location: "line 1"},
			types.Vulnerability{Title: "b", Severity: types.SeverityHigh, Location: "line 2"},
			types.Vulnerability{Title: "c", Severity: types.SeverityCritical, Location: "line 3"},
		),
	}

	scoreSmaller := Merge(testAddress, types.NetworkEthereum, smaller).OverallRiskScore
	scoreLarger := Merge(testAddress, types.NetworkEthereum, larger).OverallRiskScore

	assert.LessOrEqual(t, scoreLarger, scoreSmaller)
}

func TestMergeAllClearScoresMaximum(t *testing.T) {
	results := map[types.AnalysisKind]types.SubResult{
		types.KindStatic:  staticResult(10.0),
		types.KindDynamic: types.Success(types.KindDynamic, map[string]any{"status": true, "gas_used": int64(21000)}, 0.9),
	}

	report := Merge(testAddress, types.NetworkEthereum, results)

	assert.InDelta(t, 100.0, report.OverallRiskScore, 0.001)
	assert.Equal(t, 0, report.Summary.Total)
}

func TestMergeAllFailuresProducesIncompleteReport(t *testing.T) {
	results := map[types.AnalysisKind]types.SubResult{
		types.KindStatic:  types.Failure(types.KindStatic, types.ReasonInternalError, "boom"),
		types.KindDynamic: types.Failure(types.KindDynamic, types.ReasonTimeout, "slow"),
	}

	report := Merge(testAddress, types.NetworkEthereum, results)

	require.NotNil(t, report)
	assert.True(t, report.Incomplete)
	assert.Empty(t, report.Vulnerabilities)
	assert.Zero(t, report.ConfidenceScore)
	assert.Zero(t, report.OverallRiskScore)
	// raw sub-results stay attached for audit
	assert.Len(t, report.SubAnalyses, 2)
}

func TestMergeRecommendationsDeduplicated(t *testing.T) {
	results := map[types.AnalysisKind]types.SubResult{
		types.KindStatic: staticResult(8.0,
			types.Vulnerability{Title: "a", Severity: types.SeverityMedium, Location: "line 1", Recommendation: "Use the withdrawal pattern"},
		),
		types.KindRAG: types.Success(types.KindRAG, map[string]any{
			"recommendations": []any{"Use the withdrawal pattern", "Pin the compiler version"},
		}, 0.8),
		types.KindGas: types.Success(types.KindGas, map[string]any{
			"optimizations": []any{"Pack struct variables"},
		}, 0.75),
	}

	report := Merge(testAddress, types.NetworkEthereum, results)

	assert.Equal(t, []string{
		"Use the withdrawal pattern",
		"Pin the compiler version",
		"Pack struct variables",
	}, report.Recommendations)
}

func TestMergeSummaryTally(t *testing.T) {
	results := map[types.AnalysisKind]types.SubResult{
		types.KindStatic: staticResult(2.0,
			types.Vulnerability{Title: "a", Severity: types.SeverityCritical, Location: "line 1"},
			types.Vulnerability{Title: "b", Severity: types.SeverityHigh, Location: "line 2"},
			types.Vulnerability{Title: "c", Severity: types.SeverityHigh, Location: "line 3"},
			types.Vulnerability{Title: "d", Severity: types.SeverityInfo, Location: "line 4"},
		),
	}

	report := Merge(testAddress, types.NetworkEthereum, results)

	assert.Equal(t, 1, report.Summary.Critical)
	assert.Equal(t, 2, report.Summary.High)
	assert.Equal(t, 1, report.Summary.Info)
	assert.Equal(t, 4, report.Summary.Total)
}
