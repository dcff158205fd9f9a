package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestParse_Empty(t *testing.T) {
	result := Parse("")
	assert.Equal(t, "", result.Command)
	assert.Nil(t, result.Args)
}

func TestParse_SingleWord(t *testing.T) {
	result := Parse("put")
	assert.Equal(t, "put", result.Command)
	assert.Nil(t, result.Args)
	assert.Equal(t, "", result.RawArgs)
}

func TestParse_Lowercase(t *testing.T) {
	assert.Equal(t, "turn_left", Parse("TURN_LEFT").Command)
}

func TestParse_WithArgs(t *testing.T) {
	result := Parse("report all   done")
	assert.Equal(t, "report", result.Command)
	assert.Equal(t, []string{"all", "done"}, result.Args)
	assert.Equal(t, "all   done", result.RawArgs)
}

func TestParse_Comment(t *testing.T) {
	result := Parse("  move 3   # to the door")
	assert.Equal(t, "move", result.Command)
	assert.Equal(t, []string{"3"}, result.Args)
	assert.Equal(t, "3", result.RawArgs)

	assert.Equal(t, "", Parse("# nothing").Command)
}

func TestParseProgram_LineNumbers(t *testing.T) {
	prog := ParseProgram("move 2\n\n# turn around\nturn_left\n  take apple\n")
	require.Len(t, prog, 3)
	assert.Equal(t, 1, prog[0].Line)
	assert.Equal(t, "turn_left", prog[1].Command)
	assert.Equal(t, 4, prog[1].Line)
	assert.Equal(t, 5, prog[2].Line)
	assert.Equal(t, []string{"apple"}, prog[2].Args)
}

func TestPropertyParseAlwaysLowercasesCommand(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		word := rapid.StringMatching(`[A-Za-z_]{1,20}`).Draw(t, "word")
		result := Parse(word)
		for _, c := range result.Command {
			if c >= 'A' && c <= 'Z' {
				t.Fatalf("command %q contains uppercase char in Parse result %q", word, result.Command)
			}
		}
	})
}

func TestPropertyParseProgramSkipsOnlyBlankLines(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		words := rapid.SliceOf(rapid.StringMatching(`[a-z]{1,8}`)).Draw(t, "words")
		blanks := rapid.IntRange(0, 3).Draw(t, "blanks")
		src := ""
		for _, w := range words {
			src += w + "\n"
			for i := 0; i < blanks; i++ {
				src += "   \n"
			}
		}
		prog := ParseProgram(src)
		if len(prog) != len(words) {
			t.Fatalf("got %d instructions for %d words", len(prog), len(words))
		}
		for i, res := range prog {
			if res.Line != 1+i*(blanks+1) {
				t.Fatalf("instruction %d on line %d", i, res.Line)
			}
		}
	})
}
