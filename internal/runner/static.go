// ABOUTME: Lexical static analysis of Solidity source for dangerous constructs.
// ABOUTME: Emits findings with fixed severities and a deterministic security sub-score.

package runner

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/tbraun92/contract-sentinel/internal/types"

	"github.com/sirupsen/logrus"
)

const staticConfidence = 0.85

// pattern describes one dangerous construct to scan for.
type pattern struct {
	re             *regexp.Regexp
	title          string
	severity       types.Severity
	description    string
	recommendation string
	category       string
	swc            string
}

var staticPatterns = []pattern{
	{
		re:             regexp.MustCompile(`(?i)\b(selfdestruct|suicide)\s*\(`),
		title:          "Self-destruct capability",
		severity:       types.SeverityHigh,
		description:    "Contract can be destroyed via selfdestruct, removing code and forwarding funds",
		recommendation: "Remove selfdestruct or guard it behind multi-party authorization",
		category:       "selfdestruct",
		swc:            "SWC-106",
	},
	{
		re:             regexp.MustCompile(`(?i)\.delegatecall\s*\(`),
		title:          "Delegatecall usage",
		severity:       types.SeverityHigh,
		description:    "delegatecall executes foreign code in this contract's storage context",
		recommendation: "Restrict delegatecall targets to immutable, audited implementations",
		category:       "delegatecall",
		swc:            "SWC-112",
	},
	{
		re:             regexp.MustCompile(`\.call\s*[({]`),
		title:          "Unguarded low-level call",
		severity:       types.SeverityMedium,
		description:    "Low-level call forwards gas to an external address and may re-enter",
		recommendation: "Check the return value and apply checks-effects-interactions ordering",
		category:       "unchecked_call",
		swc:            "SWC-104",
	},
	{
		re:             regexp.MustCompile(`\.(send|transfer)\s*\(`),
		title:          "Unguarded external transfer",
		severity:       types.SeverityMedium,
		description:    "send/transfer to an external address with a fixed gas stipend can fail silently or brick on gas repricing",
		recommendation: "Prefer the withdrawal pattern over direct transfers",
		category:       "unchecked_call",
		swc:            "SWC-134",
	},
	{
		re:             regexp.MustCompile(`(?i)\btx\.origin\b`),
		title:          "tx.origin authorization",
		severity:       types.SeverityMedium,
		description:    "tx.origin based checks are bypassable through intermediate contracts",
		recommendation: "Use msg.sender for authorization checks",
		category:       "access_control",
		swc:            "SWC-115",
	},
	{
		re:             regexp.MustCompile(`(?i)\b(block\.timestamp|now)\b`),
		title:          "Block timestamp dependence",
		severity:       types.SeverityLow,
		description:    "Miners can skew block timestamps within a small window",
		recommendation: "Avoid timestamps for critical logic or tolerate multi-second skew",
		category:       "timestamp",
		swc:            "SWC-116",
	},
}

// severity deductions for the static sub-score, starting from 10.0
const (
	maxSubScore       = 10.0
	highDeduction     = 2.0
	mediumDeduction   = 1.0
	lowDeduction      = 0.5
	unverifiedWarning = "source not verified: bytecode-only contracts cannot be audited statically"
)

// Static scans verified source for known dangerous constructs.
type Static struct {
	logger *logrus.Logger
}

func NewStatic(logger *logrus.Logger) *Static {
	return &Static{logger: logger}
}

func (s *Static) Kind() types.AnalysisKind {
	return types.KindStatic
}

func (s *Static) Run(ctx context.Context, target *Target) types.SubResult {
	source := target.Source()

	// Absence of source is a reportable outcome, not an error.
	if source == "" {
		return types.Success(types.KindStatic, map[string]any{
			"source_verified": false,
			"security_score":  0.0,
			"recommendations": []string{unverifiedWarning},
		}, staticConfidence)
	}

	findings := scanSource(source)
	score := subScore(findings)

	s.logger.WithFields(logrus.Fields{
		"address":        target.Address,
		"findings":       len(findings),
		"security_score": score,
	}).Debug("Static analysis completed")

	return types.Success(types.KindStatic, map[string]any{
		"source_verified": true,
		"security_score":  score,
		"vulnerabilities": findings,
	}, staticConfidence)
}

// scanSource runs every pattern over the source line by line so findings can
// carry their location.
func scanSource(source string) []types.Vulnerability {
	var findings []types.Vulnerability

	lines := strings.Split(source, "\n")
	for _, p := range staticPatterns {
		for i, line := range lines {
			trimmed := strings.TrimSpace(line)
			if strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "*") {
				continue
			}
			if !p.re.MatchString(line) {
				continue
			}
			findings = append(findings, types.Vulnerability{
				Title:          p.title,
				Severity:       p.severity,
				Description:    p.description,
				Location:       fmt.Sprintf("line %d", i+1),
				Recommendation: p.recommendation,
				Category:       p.category,
				SWC:            p.swc,
			})
		}
	}

	return findings
}

// subScore starts at 10.0 and deducts per finding severity, floored at 0.
func subScore(findings []types.Vulnerability) float64 {
	score := maxSubScore
	for _, f := range findings {
		switch f.Severity {
		case types.SeverityCritical, types.SeverityHigh:
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
