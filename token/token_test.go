package token

import "testing"

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{NUMBER, "NUMBER"},
		{SYMBOL, "SYMBOL"},
		{EOF, "EOF"},
		{ERROR, "ERROR"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestPositionLess(t *testing.T) {
	a := Position{Line: 1, Col: 5}
	b := Position{Line: 1, Col: 6}
	c := Position{Line: 2, Col: 1}

	if !a.Less(b) {
		t.Errorf("expected %v < %v", a, b)
	}
	if !b.Less(c) {
		t.Errorf("expected %v < %v", b, c)
	}
	if c.Less(a) {
		t.Errorf("did not expect %v < %v", c, a)
	}
}

func TestTokenString(t *testing.T) {
	tok := Token{
		Kind:   NUMBER,
		Lexeme: "3.14",
		Span: Span{
			Start: Position{Line: 1, Col: 1},
			End:   Position{Line: 1, Col: 5},
		},
	}
	want := `NUMBER "3.14" (1:1-1:5)`
	if got := tok.String(); got != want {
		t.Errorf("Token.String() = %q, want %q", got, want)
	}
}
