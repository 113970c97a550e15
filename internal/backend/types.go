package backend

import "encoding/json"

// TokenRequest is the body of decode and analyze.
type TokenRequest struct {
	Token string `json:"token"`
}

// VerifyRequest is the body of verify.
type VerifyRequest struct {
	Token  string `json:"token"`
	Secret string `json:"secret"`
}

// EncodeRequest is the body of encode.
type EncodeRequest struct {
	Header  map[string]any `json:"header"`
	Payload map[string]any `json:"payload"`
	Secret  string         `json:"secret"`
}

// EncodeResponse carries the signed token.
type EncodeResponse struct {
	Token string `json:"token"`
}

// DecodeResponse is the decoded view of a token.
type DecodeResponse struct {
	Header    map[string]any `json:"header"`
	Payload   map[string]any `json:"payload"`
	Signature string         `json:"signature,omitempty"`
}

// VerifyResponse reports signature validity.
type VerifyResponse struct {
	ValidSignature bool `json:"valid_signature"`
}

// TestResult is the decoded header/payload stored alongside a saved test.
type TestResult struct {
	Header  map[string]any `json:"header" yaml:"header"`
	Payload map[string]any `json:"payload" yaml:"payload"`
}

// SaveTestRequest is the body of save-test.
type SaveTestRequest struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Token       string     `json:"token"`
	Result      TestResult `json:"result"`
}

// SavedTest is a persisted test case.
type SavedTest struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Token       string     `json:"token"`
	Result      TestResult `json:"result"`
}

// UnmarshalJSON accepts numeric and string ids.
func (s *SavedTest) UnmarshalJSON(data []byte) error {
	type alias SavedTest

	var raw struct {
		alias
		ID json.RawMessage `json:"id"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*s = SavedTest(raw.alias)

	if len(raw.ID) > 0 {
		var id string
		if err := json.Unmarshal(raw.ID, &id); err == nil {
			s.ID = id
		} else {
			s.ID = string(raw.ID)
		}
	}

	return nil
}

// AnalyzeResponse is the three-phase analysis report.
type AnalyzeResponse struct {
	OverallSuccess bool            `json:"overall_success"`
	Message        string          `json:"message"`
	Phases         AnalyzePhases   `json:"phases"`
	Decoded        *DecodeResponse `json:"decoded,omitempty"`
}

// AnalyzePhases groups the per-phase reports.
type AnalyzePhases struct {
	Lexical   LexicalPhase   `json:"lexical"`
	Syntactic SyntacticPhase `json:"syntactic"`
	Semantic  SemanticPhase  `json:"semantic"`
}

// LexicalPhase is the tokenizer report.
type LexicalPhase struct {
	Success    bool           `json:"success"`
	TokenCount int            `json:"token_count"`
	Alphabet   Alphabet       `json:"alphabet"`
	Tokens     []LexicalToken `json:"tokens"`
	Errors     []string       `json:"errors"`
}

// Alphabet describes the lexical alphabet.
type Alphabet struct {
	Name  string `json:"name"`
	Size  int    `json:"size"`
	Regex string `json:"regex"`
}

// LexicalToken is one token found by the lexer.
type LexicalToken struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Position int    `json:"position"`
}

// SyntacticPhase is the parser report.
type SyntacticPhase struct {
	Success   bool       `json:"success"`
	ParseTree *ParseNode `json:"parse_tree,omitempty"`
	Errors    []string   `json:"errors"`
}

// ParseNode is a node of the grammar parse tree.
type ParseNode struct {
	Symbol   string       `json:"symbol"`
	Value    string       `json:"value,omitempty"`
	Children []*ParseNode `json:"children,omitempty"`
}

// SemanticPhase is the claim analysis report.
type SemanticPhase struct {
	Success     bool                `json:"success"`
	SymbolTable []Symbol            `json:"symbol_table"`
	Statistics  *SemanticStatistics `json:"statistics,omitempty"`
	Errors      []string            `json:"errors"`
	Warnings    []string            `json:"warnings"`
}

// Symbol is one claim in the symbol table.
type Symbol struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
	Type  string `json:"type"`
	Scope string `json:"scope"`
}

// SemanticStatistics holds claim counts.
type SemanticStatistics struct {
	TotalClaims int `json:"total_claims"`
}

// TotalClaims prefers the backend statistic and falls back to the table size.
func (p SemanticPhase) TotalClaims() int {
	if p.Statistics != nil && p.Statistics.TotalClaims > 0 {
		return p.Statistics.TotalClaims
	}

	return len(p.SymbolTable)
}

// ClaimsInScope counts symbols of the given scope (header or payload).
func (p SemanticPhase) ClaimsInScope(scope string) int {
	count := 0
	for _, s := range p.SymbolTable {
		if s.Scope == scope {
			count++
		}
	}

	return count
}
