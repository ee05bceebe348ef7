/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jcvm/src/classfile"
)

func TestBuildSchema_RootHasNoParent(t *testing.T) {
	cf, err := classfile.Parse(buildTestClassObject(t, "java/lang/Object", ""))
	require.NoError(t, err)
	s, err := BuildSchema(cf, nil)
	require.NoError(t, err)
	assert.Nil(t, s.Parent)
	assert.Empty(t, s.Fields)
}

func TestBuildSchema_MissingSuperIsLinkageFailure(t *testing.T) {
	cf, err := classfile.Parse(buildTestClassObject(t, "Orphan", "java/lang/Object"))
	require.NoError(t, err)
	_, err = BuildSchema(cf, nil)
	assert.Error(t, err)
}

func TestBuildSchema_FieldLayoutIsAppendOnlyExtensionOfParent(t *testing.T) {
	l := New(memSource{
		"java/lang/Object.class": buildTestClassObject(t, "java/lang/Object", ""),
	})
	objEntry, res := l.AttemptLoad("java/lang/Object")
	require.Equal(t, Loaded, res)

	parent := &Schema{
		ClassName: "pkg/Base",
		Parent:    objEntry.Schema,
		Fields: []FieldSlot{
			{Name: "x", Descriptor: "I", OwnerClass: "pkg/Base"},
			{Name: "y", Descriptor: "J", OwnerClass: "pkg/Base"},
		},
		Methods: map[MethodKey]string{},
	}

	cf, err := classfile.Parse(buildTestClassObject(t, "pkg/Child", "pkg/Base"))
	require.NoError(t, err)
	child, err := BuildSchema(cf, parent)
	require.NoError(t, err)

	require.Len(t, child.Fields, len(parent.Fields))
	for i := range parent.Fields {
		assert.Equal(t, parent.Fields[i], child.Fields[i],
			"child.Fields[0:len(parent.Fields)] must equal parent.Fields exactly")
	}
}

func TestBuildSchema_SubclassMethodShadowsParent(t *testing.T) {
	parent := &Schema{
		ClassName: "pkg/Base",
		Methods: map[MethodKey]string{
			{Name: "m", Descriptor: "()I"}: "pkg/Base",
		},
	}
	// Child overrides m()I.
	child, err := BuildSchema(&classfile.ClassFile{
		ThisClass:  "pkg/Child",
		SuperClass: "pkg/Base",
		Methods:    []classfile.MethodInfo{{Name: "m", Descriptor: "()I"}},
	}, parent)
	require.NoError(t, err)

	owner, ok := child.ResolveMethod("m", "()I")
	require.True(t, ok)
	assert.Equal(t, "pkg/Child", owner, "virtual resolution must pick the most-derived override")

	owner, ok = parent.ResolveMethod("m", "()I")
	require.True(t, ok)
	assert.Equal(t, "pkg/Base", owner, "invokespecial against the declared (super) class must still see its own impl")
}

func TestSchema_IsSubtypeOf(t *testing.T) {
	root := &Schema{ClassName: "java/lang/Object"}
	base := &Schema{ClassName: "pkg/Base", Parent: root}
	child := &Schema{ClassName: "pkg/Child", Parent: base}

	assert.True(t, child.IsSubtypeOf("pkg/Child"))
	assert.True(t, child.IsSubtypeOf("pkg/Base"))
	assert.True(t, child.IsSubtypeOf("java/lang/Object"))
	assert.False(t, child.IsSubtypeOf("pkg/Unrelated"))
}
