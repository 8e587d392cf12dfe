// ABOUTME: Prompt templates for the generative-text collaborator.
// ABOUTME: Holds the fixed audit question and gas optimization prompts used by the RAG and gas runners.

package runner

import (
	"fmt"
	"strings"

	"github.com/tbraun92/contract-sentinel/internal/providers"
)

// codePrefixLimit bounds how much source is embedded in retrieval queries and
// prompts; knowledge-base similarity degrades on very long inputs.
const codePrefixLimit = 2000

const auditQuestionTemplate = `Use the following security knowledge base context to analyze the smart contract.

Context:
%s

Contract Address: %s
Contract Code:
%s

What are the potential security issues in this contract and how can they be mitigated?

Format the core of your response as a JSON object inside a ` + "```json" + ` fenced block with fields:
- assessment (string)
- vulnerabilities (array of objects with title, severity, description)
- recommendations (array of strings)`

const gasPromptTemplate = `Analyze this Solidity contract for gas optimization opportunities:

%s

Identify:
1. Expensive operations that can be optimized
2. Storage vs memory usage inefficiencies
3. Loop optimizations
4. Struct packing opportunities
5. Function visibility optimizations

Format the core of your response as a JSON object inside a ` + "```json" + ` fenced block with fields:
- optimizations (array of strings)
- estimated_savings (string)`

// codePrefix truncates source to the prompt-safe prefix length.
func codePrefix(source string) string {
	if len(source) <= codePrefixLimit {
		return source
	}
	return source[:codePrefixLimit] + "\n// ... truncated ..."
}

// auditPrompt renders the RAG analysis question with retrieved context.
func auditPrompt(address, source string, passages []providers.Passage) string {
	var context strings.Builder
	for i, p := range passages {
		fmt.Fprintf(&context, "[%d] %s\n", i+1, p.Content)
	}
	if context.Len() == 0 {
		context.WriteString("(no relevant passages retrieved)\n")
	}
	return fmt.Sprintf(auditQuestionTemplate, context.String(), address, codePrefix(source))
}

// gasPrompt renders the optimization question.
func gasPrompt(source string) string {
	return fmt.Sprintf(gasPromptTemplate, codePrefix(source))
}
