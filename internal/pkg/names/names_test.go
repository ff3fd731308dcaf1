package names

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"Ana Souza", "ana souza"},
		{"  ANA   SOUZA ", "ana souza"},
		{"Ána Sóuza", "ana souza"},
		{"João\tDa  Silva", "joao da silva"},
		{"", ""},
		{"   ", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Key(c.input), "Key(%q)", c.input)
	}
}

func TestClean(t *testing.T) {
	assert.Equal(t, "Ána Souza", Clean("  Ána \n Souza "))
}

func TestSet_Contains(t *testing.T) {
	s := NewSet("Suporte Geral", " ", "bot")
	assert.True(t, s.Contains("SUPORTE  geral"))
	assert.True(t, s.Contains("Bot"))
	assert.False(t, s.Contains("Ana"))
	assert.Len(t, s, 2)
}

func TestLookup_Get(t *testing.T) {
	l := NewLookup(map[string]string{"João Silva": "5511999990000"})
	v, ok := l.Get("joao  silva")
	assert.True(t, ok)
	assert.Equal(t, "5511999990000", v)

	_, ok = l.Get("Maria")
	assert.False(t, ok)
}
