package todo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `pick 1a2b3c4 Step 1.1: dummy
pick 5d6e7f8 Step 1.2: dummy
pick 9a8b7c6 Step 1: Add manual

# Rebase 0f0f0f0..9a8b7c6 onto 0f0f0f0 (3 commands)
#
# Commands:
# p, pick <commit> = use commit
`

func TestDecode(t *testing.T) {
	ops := Decode(sample)
	require.Len(t, ops, 3)
	assert.Equal(t, Operation{Method: Pick, Hash: "1a2b3c4", Payload: "Step 1.1: dummy"}, ops[0])
	assert.Equal(t, "9a8b7c6", ops[2].Hash)
	assert.True(t, ops[0].IsCommit())
}

func TestDecode_ExecAndBreak(t *testing.T) {
	text := "exec GIT_SEQUENCE_EDITOR='stepwise rebase sort' git rebase --edit-todo\nbreak\nnoop\n\n"
	ops := Decode(text)
	require.Len(t, ops, 3)
	assert.Equal(t, Exec, ops[0].Method)
	assert.Equal(t, "GIT_SEQUENCE_EDITOR='stepwise rebase sort' git rebase --edit-todo", ops[0].Command())
	assert.False(t, ops[0].IsCommit())
	assert.Equal(t, Operation{Method: Break}, ops[1])
	assert.Equal(t, "noop", ops[2].Method)
}

func TestEncode(t *testing.T) {
	ops := []Operation{
		{Method: Edit, Hash: "1a2b3c4", Payload: "Step 1.1: dummy"},
		NewExec("stepwise rebase renumber"),
		{Method: Break},
	}
	assert.Equal(t, "edit 1a2b3c4 Step 1.1: dummy\nexec stepwise rebase renumber\nbreak\n", Encode(ops))
}

func TestRoundTrip(t *testing.T) {
	inputs := []string{
		sample,
		"pick 1a2b3c4 Step 1.1: two  spaces kept\nexec /tmp/bin/stepwise rebase super-pick 5d6e7f8\n",
		"pick 1a2b3c4\n",
		"",
	}
	for _, in := range inputs {
		once := Decode(in)
		assert.Equal(t, once, Decode(Encode(once)))
	}
	// Instruction-only text is reproduced byte for byte.
	clean := "pick 1a2b3c4 Step 1.1: dummy\nexec stepwise rebase renumber\n"
	assert.Equal(t, clean, Encode(Decode(clean)))
}

func TestInsertRemove(t *testing.T) {
	ops := Decode("pick aaaaaaa a\npick bbbbbbb b\n")
	ops = Insert(ops, 1, NewExec("x1 y"), NewExec("x2 y"))
	require.Len(t, ops, 4)
	assert.Equal(t, "x1 y", ops[1].Command())
	assert.Equal(t, "bbbbbbb", ops[3].Hash)

	ops = Insert(ops, len(ops), NewExec("last cmd"))
	assert.Equal(t, "last cmd", ops[4].Command())

	ops = Remove(ops, 0)
	assert.Equal(t, "x1 y", ops[0].Command())
	assert.Len(t, ops, 4)
}
