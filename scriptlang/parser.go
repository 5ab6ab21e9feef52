package scriptlang

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"

	"github.com/mogaika/scenegraph/scene"
)

const (
	TOKEN_OP = iota
	TOKEN_LABEL
	TOKEN_NUMBER
	TOKEN_STRING
	TOKEN_NEWLINE
	TOKEN_COMMENT
)

var lexer *lexmachine.Lexer

func init() {
	lexer = lexmachine.NewLexer()
	lexer.Add([]byte(`[TRS]:`), getToken(TOKEN_OP))
	lexer.Add([]byte(`\$[a-zA-Z_][a-zA-Z0-9_]*`), getToken(TOKEN_LABEL))
	lexer.Add([]byte(`[\+\-]?[0-9]*\.?[0-9]+([eE][\+\-]?[0-9]+)?`), getToken(TOKEN_NUMBER))
	lexer.Add([]byte(`(\n|\r|\n\r)+`), getToken(TOKEN_NEWLINE))
	lexer.Add([]byte(`//[^\n]*`), getToken(TOKEN_COMMENT))
	lexer.Add([]byte(`( |\t)+`), skip)
	lexer.Add([]byte(`"(\\.|[^"])*"`), getToken(TOKEN_STRING))
	if err := lexer.Compile(); err != nil {
		panic(err)
	}
}

func getToken(tokenType int) lexmachine.Action {
	return func(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
		return s.Token(tokenType, string(m.Bytes), m), nil
	}
}

func skip(scan *lexmachine.Scanner, match *machines.Match) (interface{}, error) {
	return nil, nil
}

var opKinds = map[byte]scene.Kind{
	'T': scene.KindTranslate,
	'R': scene.KindRotate,
	'S': scene.KindScale,
}

// ParseScript reads a transform script. Every line holds at most one
// label or one opcode; the parameters of an opcode are an optional quoted
// component name followed by numbers.
func ParseScript(text []byte) ([]Instruction, error) {
	scanner, err := lexer.Scanner(text)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to create lexer scanner")
	}

	result := make([]Instruction, 0, 16)

	var currentOp *Opcode
	var currentLabel *Label
	for Itok, err, eos := scanner.Next(); !eos; Itok, err, eos = scanner.Next() {
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to parse token")
		}
		tok := Itok.(*lexmachine.Token)
		lexeme := string(tok.Lexeme)

		switch tok.Type {
		case TOKEN_OP:
			if currentOp != nil || currentLabel != nil {
				return nil, errors.Errorf("Multiple instructions on line %v (%q)", tok.StartLine, lexeme)
			}
			currentOp = &Opcode{Kind: opKinds[lexeme[0]]}
			result = append(result, currentOp)
		case TOKEN_LABEL:
			if currentOp != nil || currentLabel != nil {
				return nil, errors.Errorf("Multiple instructions on line %v (%q)", tok.StartLine, lexeme)
			}
			currentLabel = &Label{Name: lexeme[1:]}
			result = append(result, currentLabel)
		case TOKEN_NUMBER:
			if currentOp == nil {
				return nil, errors.Errorf("Missed opcode on line %v (%q)", tok.StartLine, lexeme)
			}
			f, err := strconv.ParseFloat(lexeme, 32)
			if err != nil {
				return nil, errors.Errorf("Unknown number format on line %v (%q)", tok.StartLine, lexeme)
			}
			currentOp.Values = append(currentOp.Values, float32(f))
		case TOKEN_STRING:
			if currentOp == nil {
				return nil, errors.Errorf("Missed opcode on line %v (%q)", tok.StartLine, lexeme)
			}
			if currentOp.Name != "" || len(currentOp.Values) != 0 {
				return nil, errors.Errorf("Component name must come first on line %v (%q)", tok.StartLine, lexeme)
			}
			s, err := strconv.Unquote(lexeme)
			if err != nil {
				return nil, errors.Errorf("Unknown string format on line %v (%q)", tok.StartLine, lexeme)
			}
			currentOp.Name = s
		case TOKEN_NEWLINE:
			if currentOp != nil {
				if err := currentOp.check(); err != nil {
					return nil, errors.Wrapf(err, "line %v", tok.StartLine)
				}
			}
			currentOp = nil
			currentLabel = nil
		case TOKEN_COMMENT:
			comment := strings.TrimSpace(lexeme[2:])
			if currentOp != nil {
				currentOp.Comment = comment
			} else if currentLabel != nil {
				currentLabel.Comment = comment
			}
		}
	}
	if currentOp != nil {
		if err := currentOp.check(); err != nil {
			return nil, errors.Wrapf(err, "last line")
		}
	}

	return result, nil
}
