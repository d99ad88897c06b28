package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskStep_NextStepDropsInput(t *testing.T) {
	input := "hello"
	step := TaskStep{TaskID: "task-1", StepID: "step-1", Input: &input}
	require.True(t, step.HasInput())

	next := step.NextStep()
	assert.Equal(t, "task-1", next.TaskID)
	assert.NotEqual(t, step.StepID, next.StepID)
	assert.NotEmpty(t, next.StepID)
	assert.False(t, next.HasInput())
}

func TestNewTask(t *testing.T) {
	task := NewTask("what is 2+3?", nil)
	assert.NotEmpty(t, task.TaskID)
	assert.Equal(t, "what is 2+3?", task.Input)
	assert.Nil(t, task.State)
	assert.NotNil(t, task.Extra)
}

func TestTaskState_OrderAndCopies(t *testing.T) {
	s := NewTaskState()
	s.AddMessage(NewUserMessage("one"))
	s.AddMessage(NewAssistantMessage("two"))
	s.AddMessage(NewToolMessage("add", "call-1", "three"))

	msgs := s.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, []string{"one", "two", "three"}, []string{msgs[0].Content, msgs[1].Content, msgs[2].Content})

	// mutation of the returned copy must not leak back
	msgs[0].Content = "changed"
	assert.Equal(t, "one", s.Messages()[0].Content)

	s.AddSource(ToolOutput{Content: "5", ToolName: "add"})
	srcs := s.Sources()
	srcs[0].Content = "changed"
	assert.Equal(t, "5", s.Sources()[0].Content)

	assert.Equal(t, 1, s.IncrementCalls())
	assert.Equal(t, 2, s.IncrementCalls())
	assert.Equal(t, 2, s.CallCount())

	s.Reset()
	assert.Empty(t, s.Messages())
	assert.Len(t, s.Sources(), 1)
	assert.Equal(t, 2, s.CallCount())
}

func TestMessage_Helpers(t *testing.T) {
	tm := NewToolMessage("add", "call-9", "5")
	assert.Equal(t, RoleTool, tm.Role)
	assert.Equal(t, "add", tm.ToolName)
	assert.Equal(t, "call-9", tm.ToolCallID)
	assert.Equal(t, "tool: 5", tm.String())

	am := NewAssistantMessage("", ToolSelection{ToolID: "c", ToolName: "add"})
	assert.True(t, am.HasToolSelections())
	assert.False(t, NewAssistantMessage("done").HasToolSelections())

	assert.Equal(t, "5", ToolOutput{Content: "5"}.String())
	assert.NotNil(t, CloneMessages(nil))
}

func TestID_Uniqueness(t *testing.T) {
	if NewID() == NewID() {
		t.Error("Expected unique IDs")
	}
}
