package dsl

import "testing"

func TestScanSimpleBinding(t *testing.T) {
	src := []byte("super + Return\n\tfoot\n")
	tokens, errs := Scan(src)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	var kinds []TokenKind
	for _, tok := range tokens {
		kinds = append(kinds, tok.Kind)
	}
	want := []TokenKind{
		TokStartBinding, TokText, TokPlus, TokText, TokEndBinding,
		TokStartCommand, TokText, TokEndCommand,
	}
	if len(kinds) != len(want) {
		t.Fatalf("kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("kind[%d] = %v, want %v", i, kinds[i], want[i])
		}
	}
}

func TestScanChainSeparators(t *testing.T) {
	src := []byte("super + a : b ; c\n\techo hi\n")
	tokens, errs := Scan(src)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	var chains []ChainMode
	for _, tok := range tokens {
		if tok.Kind == TokChain {
			chains = append(chains, tok.Mode)
		}
	}
	if len(chains) != 2 {
		t.Fatalf("expected 2 chain tokens, got %d", len(chains))
	}
	if chains[0] != ChainLocking || chains[1] != ChainOnce {
		t.Errorf("chains = %v, want [Locking Once]", chains)
	}
}

func TestScanGroupRange(t *testing.T) {
	src := []byte("super + {1-3}\n\techo {1-3}\n")
	tokens, _ := Scan(src)
	var ranges int
	for _, tok := range tokens {
		if tok.Kind == TokRange {
			ranges++
			if tok.RangeFrom != '1' || tok.RangeTo != '3' {
				t.Errorf("range = %c-%c, want 1-3", tok.RangeFrom, tok.RangeTo)
			}
		}
	}
	if ranges != 2 {
		t.Fatalf("expected 2 range tokens, got %d", ranges)
	}
}

func TestScanGroupAlternatives(t *testing.T) {
	src := []byte("super + {h,j,k,l}\n\techo {left,down,up,right}\n")
	tokens, errs := Scan(src)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	var seps int
	for _, tok := range tokens {
		if tok.Kind == TokSeparator {
			seps++
		}
	}
	if seps != 6 {
		t.Fatalf("expected 6 separators total, got %d", seps)
	}
}

func TestScanUnterminatedGroup(t *testing.T) {
	src := []byte("super + {a,b\n\techo hi\n")
	_, errs := Scan(src)
	if len(errs) == 0 {
		t.Fatal("expected unterminated group error")
	}
}

func TestScanEscapedMetachar(t *testing.T) {
	src := []byte("super + a\n\techo a\\{b\\}c\n")
	tokens, errs := Scan(src)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	var texts []string
	for _, tok := range tokens {
		if tok.Kind == TokText {
			texts = append(texts, tok.Text(src))
		}
	}
	found := false
	for _, txt := range texts {
		if txt == "\techo "+`a\{b\}c` {
			found = true
		}
	}
	if !found {
		t.Errorf("expected escaped braces to survive in command text, got %v", texts)
	}
}

func TestScanComment(t *testing.T) {
	src := []byte("# a comment\n# continued\nsuper + a\n\techo hi\n")
	tokens, errs := Scan(src)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if tokens[0].Kind != TokStartComment {
		t.Fatalf("first token = %v, want StartComment", tokens[0].Kind)
	}
	var continues int
	for _, tok := range tokens {
		if tok.Kind == TokContinueComment {
			continues++
		}
	}
	if continues != 1 {
		t.Errorf("expected 1 ContinueComment, got %d", continues)
	}
}

func TestScanEmptyLine(t *testing.T) {
	src := []byte("super + a\n\techo hi\n\nsuper + b\n\techo bye\n")
	tokens, _ := Scan(src)
	var empties int
	for _, tok := range tokens {
		if tok.Kind == TokEmptyLine {
			empties++
		}
	}
	if empties == 0 {
		t.Error("expected at least one EmptyLine token")
	}
}
