/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package invoke

import (
	"jcvm/src/excnames"
	"jcvm/src/heap"
	"jcvm/src/interp"
	"jcvm/src/types"
	"jcvm/src/value"
)

// RunMain resolves and runs className's `public static void
// main(String[])`, the application entry point spec.md §8's launcher
// surface drives -- ensuring className itself is loaded and
// initialized first, per spec.md's class-initialization-before-use
// invariant. argv is one already-interned java/lang/String handle per
// command-line argument; RunMain builds the String[] array main's sole
// parameter expects.
func (iv *Invoker) RunMain(className string, argv []types.ObjectHandle) interp.FlowControl {
	entry, fc := iv.ensureInitialized(className)
	if fc.Kind == interp.FlowThrows {
		return fc
	}

	mi := findMethod(entry.File, "main", "([Ljava/lang/String;)V")
	if mi == nil || !mi.IsStatic() {
		return interp.Throws(iv.NewException(excnames.NoSuchMethodError, className+".main([Ljava/lang/String;)V"))
	}

	argsArray := iv.Heap.AllocateArray(value.KReference, len(argv))
	arr := heap.ExpectArray(argsArray)
	for i, h := range argv {
		arr.Slots[i] = value.Reference(h)
	}

	return iv.invokeMethodInfo(entry.File, mi, []value.Value{value.Reference(argsArray)}, types.NilHandle)
}
