package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.Len(t, r.Commands(), len(BuiltinCommands()))
}

func TestResolve_CanonicalAndAlias(t *testing.T) {
	r := DefaultRegistry()
	tests := []struct {
		input   string
		name    string
		handler string
	}{
		{"move", "move", HandlerMove},
		{"fd", "move", HandlerMove},
		{"left", "turn_left", HandlerTurnLeft},
		{"pick", "take", HandlerTake},
		{"drop", "put", HandlerPut},
		{"build", "build_wall", HandlerBuildWall},
		{"demolish", "remove_wall", HandlerRemoveWall},
		{"say", "report", HandlerReport},
		{"trace", "set_trace", HandlerSetTrace},
		{"speed", "set_speed", HandlerSetSpeed},
		{"read", "read_message", HandlerReadMessage},
		{"check", "check", HandlerCheck},
	}
	for _, tc := range tests {
		cmd, ok := r.Resolve(tc.input)
		require.True(t, ok, tc.input)
		assert.Equal(t, tc.name, cmd.Name, tc.input)
		assert.Equal(t, tc.handler, cmd.Handler, tc.input)
	}
}

func TestResolve_NotFound(t *testing.T) {
	_, ok := DefaultRegistry().Resolve("teleport")
	assert.False(t, ok)
}

func TestNewRegistry_DuplicateName(t *testing.T) {
	_, err := NewRegistry([]Command{{Name: "a"}, {Name: "a"}})
	assert.Error(t, err)
}

func TestNewRegistry_AliasConflictsWithName(t *testing.T) {
	_, err := NewRegistry([]Command{{Name: "a"}, {Name: "b", Aliases: []string{"a"}}})
	assert.Error(t, err)
}

func TestNewRegistry_NameConflictsWithAlias(t *testing.T) {
	_, err := NewRegistry([]Command{{Name: "a", Aliases: []string{"b"}}, {Name: "b"}})
	assert.Error(t, err)
}

func TestNewRegistry_DuplicateAlias(t *testing.T) {
	_, err := NewRegistry([]Command{{Name: "a", Aliases: []string{"x"}}, {Name: "b", Aliases: []string{"x"}}})
	assert.Error(t, err)
}

func TestCommandsByCategory(t *testing.T) {
	cats := DefaultRegistry().CommandsByCategory()
	require.Len(t, cats[CategoryMovement], 2)
	assert.Equal(t, "move", cats[CategoryMovement][0].Name)
	assert.Equal(t, "turn_left", cats[CategoryMovement][1].Name)
	assert.Len(t, cats[CategoryObjects], 2)
	assert.Len(t, cats[CategorySystem], 1)
}

func TestPropertyEveryAliasResolvesToItsCommand(t *testing.T) {
	r := DefaultRegistry()
	cmds := BuiltinCommands()
	rapid.Check(t, func(t *rapid.T) {
		c := rapid.SampledFrom(cmds).Draw(t, "command")
		for _, alias := range c.Aliases {
			got, ok := r.Resolve(alias)
			if !ok || got.Name != c.Name {
				t.Fatalf("alias %q did not resolve to %q", alias, c.Name)
			}
		}
	})
}
