package tokenizer

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestSplitSourceBasic(t *testing.T) {
	src := "range I = 1..3;\ndvar float+ x[I];\n"

	stmts, blocks, err := SplitSource(src)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(blocks))
	assert.Equal(t, 2, len(stmts))
	assert.Equal(t, "range I = 1..3", stmts[0].Text)
	assert.Equal(t, 1, stmts[0].Line)
	assert.Equal(t, "dvar float+ x[I]", stmts[1].Text)
	assert.Equal(t, 2, stmts[1].Line)
}

func TestSplitSourceStripsComments(t *testing.T) {
	src := "/* header\n   spanning lines */ int n = 3; // trailing\nfloat cap = 1.0;"

	stmts, _, err := SplitSource(src)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(stmts))
	assert.Equal(t, "int n = 3", stmts[0].Text)
	assert.Equal(t, 2, stmts[0].Line)
	assert.Equal(t, "float cap = 1.0", stmts[1].Text)
	assert.Equal(t, 3, stmts[1].Line)
}

func TestSplitSourceUnclosedBlockCommentTruncates(t *testing.T) {
	src := "int n = 3;\n/* never closes\nint m = 4;"

	stmts, _, err := SplitSource(src)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(stmts))
	assert.Equal(t, "int n = 3", stmts[0].Text)
}

func TestSplitSourceIgnoresSemicolonsAndBracesInStrings(t *testing.T) {
	src := `string name = "a; b { c }";`

	stmts, blocks, err := SplitSource(src)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(blocks))
	assert.Equal(t, 1, len(stmts))
	assert.Equal(t, `string name = "a; b { c }"`, stmts[0].Text)
}

func TestExtractBraceBlocksExecute(t *testing.T) {
	src := "int n = 1;\nexecute prep {\n  results = {\"m\": 1};\n}\nint k = 2;"

	remaining, blocks, err := ExtractBraceBlocks(src)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(blocks))
	assert.Equal(t, BlockExecute, blocks[0].Kind)
	assert.Equal(t, "prep", blocks[0].Name)
	assert.Equal(t, 2, blocks[0].Line)

	stmts, err := splitStatements(StripLineComments(remaining))
	assert.NoError(t, err)
	assert.Equal(t, 2, len(stmts))
	assert.Equal(t, "int n = 1", stmts[0].Text)
	assert.Equal(t, "int k = 2", stmts[1].Text)
	assert.Equal(t, 5, stmts[1].Line)
}

func TestExtractBraceBlocksSubjectToInlines(t *testing.T) {
	src := "subject to {\n  c1: x <= 1;\n  c2: y <= 2;\n}\n"

	remaining, blocks, err := ExtractBraceBlocks(src)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(blocks))

	stmts, err := splitStatements(remaining)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(stmts))
	assert.Equal(t, "c1: x <= 1", stmts[0].Text)
	assert.Equal(t, "c2: y <= 2", stmts[1].Text)
}

func TestExtractBraceBlocksTupleSchema(t *testing.T) {
	src := "tuple Arc {\n  key string id;\n  string from;\n}\n{Arc} arcs = {};"

	remaining, blocks, err := ExtractBraceBlocks(src)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(blocks))
	assert.Equal(t, BlockTupleSchema, blocks[0].Kind)
	assert.Equal(t, "Arc", blocks[0].Name)

	stmts, err := splitStatements(remaining)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(stmts))
	assert.Equal(t, "{Arc} arcs = {}", stmts[0].Text)
}
