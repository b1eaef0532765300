package callgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gmldc/internal/gml"
)

func callsTo(fns ...gml.FunctionRef) []gml.Instruction {
	var out []gml.Instruction
	for _, fn := range fns {
		out = append(out, gml.Call{Function: fn}, gml.PopDiscard{Type: gml.TypeVariable})
	}
	return append(out, gml.Exit{})
}

func TestReachability(t *testing.T) {
	syms := &gml.Data{Functions: []string{"scr_move", "instance_destroy", "scr_unused_helper"}}
	codes := []*gml.Code{
		{Name: "gml_Object_obj_player_Step_0", Instructions: callsTo(0, 0, 1)},
		{Name: "gml_Script_scr_move", Instructions: callsTo(1)},
		{Name: "gml_Script_scr_orphan", Instructions: callsTo()},
		{Name: "gml_Script_scr_unused_helper", Instructions: callsTo(2)},
	}
	funcs := Funcs(codes)

	edges := CallEdges(funcs, syms)
	assert.Equal(t, []CallEdge{
		{From: "gml_Object_obj_player_Step_0", To: "gml_Script_scr_move", Count: 2},
		{From: "gml_Object_obj_player_Step_0", To: "instance_destroy", Count: 1},
		{From: "gml_Script_scr_move", To: "instance_destroy", Count: 1},
		{From: "gml_Script_scr_unused_helper", To: "gml_Script_scr_unused_helper", Count: 1},
	}, edges)

	entries := FindEntryPoints(funcs, edges)
	assert.Equal(t, []string{
		"gml_Object_obj_player_Step_0",
		"gml_Script_scr_orphan",
		"gml_Script_scr_unused_helper",
	}, entries)

	reach := Reachable(entries[:1], edges)
	assert.Equal(t, Reach{
		"gml_Object_obj_player_Step_0": 0,
		"gml_Script_scr_move":          1,
		"instance_destroy":             1,
	}, reach)
	assert.False(t, reach.Has("gml_Script_scr_orphan"))

	// A call chain reached first through a longer path keeps the shorter depth.
	chain := []CallEdge{
		{From: "a", To: "b", Count: 1},
		{From: "b", To: "c", Count: 1},
		{From: "a", To: "c", Count: 2},
		{From: "c", To: "d", Count: 0},
	}
	assert.Equal(t, Reach{"a": 0, "b": 1, "c": 1}, Reachable([]string{"a", "a"}, chain))
}

func TestOwner(t *testing.T) {
	tests := map[string]string{
		"gml_Object_obj_player_Step_0":        "obj_player",
		"gml_Object_obj_enemy_big_Draw_64":    "obj_enemy_big",
		"gml_Object_obj_a_Collision_obj_wall": "obj_a",
		"gml_Object_obj_ctrl_Other_10":        "obj_ctrl",
		"gml_Script_scr_move":                 "",
		"gml_RoomCC_rm_start_0_Create":        "",
		"gml_Object_broken":                   "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Owner(in), in)
	}
}
