package trace

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFlatten_Nil(t *testing.T) {
	require.Nil(t, Flatten(nil))
}

func TestFlatten_Order(t *testing.T) {
	root := New([]byte("root"))
	root.StateSet.SetWrite([]byte("own"), []byte("v"))

	pre := New([]byte("pre"))
	pre.StateSet.SetWrite([]byte("pre-key"), []byte("v"))
	root.PreTraces = append(root.PreTraces, pre)

	inline := New([]byte("inline"))
	inline.StateSet.SetWrite([]byte("inline-key"), []byte("v"))
	root.InlineTraces = append(root.InlineTraces, inline)

	post := New([]byte("post"))
	post.StateSet.SetWrite([]byte("post-key"), []byte("v"))
	root.PostTraces = append(root.PostTraces, post)

	sets := Flatten(root)
	require.Len(t, sets, 4)
	require.Contains(t, sets[0].Writes, "pre-key")
	require.Contains(t, sets[1].Writes, "own")
	require.Contains(t, sets[2].Writes, "inline-key")
	require.Contains(t, sets[3].Writes, "post-key")
}

func TestFlattenPromotable_OnlySuccessfulPrePost(t *testing.T) {
	root := New([]byte("root"))
	root.StateSet.SetWrite([]byte("own"), []byte("v"))

	successfulPre := New([]byte("pre-ok"))
	successfulPre.ExecutionStatus = Executed
	successfulPre.StateSet.SetWrite([]byte("pre-ok-key"), []byte("v"))

	failedPre := New([]byte("pre-fail"))
	failedPre.ExecutionStatus = ContractError
	failedPre.StateSet.SetWrite([]byte("pre-fail-key"), []byte("v"))

	root.PreTraces = append(root.PreTraces, successfulPre, failedPre)

	inline := New([]byte("inline"))
	inline.StateSet.SetWrite([]byte("inline-key"), []byte("v"))
	root.InlineTraces = append(root.InlineTraces, inline)

	sets := FlattenPromotable(root)
	require.Len(t, sets, 1)
	require.Contains(t, sets[0].Writes, "pre-ok-key")
}
