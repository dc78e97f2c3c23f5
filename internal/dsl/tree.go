package dsl

// Triple is a (shortcut, command, optional comment) grouping produced by
// the Tree Builder, per spec.md §4.D. Each field holds the flat token
// slice between the corresponding Start*/End* markers.
type Triple struct {
	Shortcut []Token
	Command  []Token
	Comment  []Token
}

// Build walks a scanned token stream and produces the (shortcut, command,
// comment) triples the Expander consumes. It enforces ordering — a command
// must follow a binding, optionally preceded by a comment — and reports
// UnterminatedBinding/Command/Comment at the token that opened the unclosed
// construct, per spec.md §4.D. A pending comment resets on an EmptyLine
// token.
func Build(tokens []Token) ([]Triple, []*ParseError) {
	var triples []Triple
	var errs []*ParseError

	var pendingComment []Token
	var pendingShortcut []Token
	havePending := false
	var bindingStart Token

	flushDangling := func(at Token) {
		if havePending {
			errs = append(errs, newError(at, "binding at byte %d has no command", bindingStart.Start))
			havePending = false
		}
	}

	i := 0
	for i < len(tokens) {
		tok := tokens[i]
		switch tok.Kind {
		case TokEmptyLine:
			pendingComment = nil
			flushDangling(tok)
			i++

		case TokStartComment:
			flushDangling(tok)
			j := i + 1
			for j < len(tokens) && tokens[j].Kind != TokEndComment {
				j++
			}
			if j >= len(tokens) {
				errs = append(errs, newError(tok, "unterminated comment starting at byte %d", tok.Start))
				i = j
				continue
			}
			pendingComment = tokens[i+1 : j]
			i = j + 1

		case TokStartBinding:
			flushDangling(tok)
			j := i + 1
			for j < len(tokens) && tokens[j].Kind != TokEndBinding {
				j++
			}
			if j >= len(tokens) {
				errs = append(errs, newError(tok, "unterminated binding starting at byte %d", tok.Start))
				i = j
				continue
			}
			pendingShortcut = tokens[i+1 : j]
			havePending = true
			bindingStart = tok
			i = j + 1

		case TokStartCommand:
			j := i + 1
			for j < len(tokens) && tokens[j].Kind != TokEndCommand {
				j++
			}
			if j >= len(tokens) {
				errs = append(errs, newError(tok, "unterminated command starting at byte %d", tok.Start))
				i = j
				continue
			}
			if !havePending {
				errs = append(errs, newError(tok, "command at byte %d has no preceding binding", tok.Start))
				i = j + 1
				continue
			}
			triples = append(triples, Triple{
				Shortcut: pendingShortcut,
				Command:  tokens[i+1 : j],
				Comment:  pendingComment,
			})
			havePending = false
			i = j + 1

		default:
			i++
		}
	}

	flushDangling(Token{Start: bindingStart.Start, End: bindingStart.End})
	return triples, errs
}
