package lower

import "github.com/z971586668/ssacfg/ir"

// UseInfo is a precomputed def-use index over one Function, built once per
// function translation and consulted by condition lowering's
// compare-with-extra-uses rule and by instruction lowering's
// AllUsesAreNonTrackMemory / ZExt-SExt-address-only optimizations.
type UseInfo struct {
	users map[ir.Value][]ir.Instruction
}

// BuildUseInfo walks every instruction of fn, in declared block and
// instruction order, recording each operand's users.
func BuildUseInfo(fn *ir.Function) *UseInfo {
	u := &UseInfo{users: make(map[ir.Value][]ir.Instruction)}
	for _, b := range fn.Blocks {
		for _, instr := range b.Instrs {
			for _, op := range ir.Operands(instr) {
				u.users[op] = append(u.users[op], instr)
			}
		}
	}
	return u
}

// NumUses returns how many instructions read v as an operand.
func (u *UseInfo) NumUses(v ir.Value) int { return len(u.users[v]) }

// Users returns the instructions that read v as an operand, in the order
// BuildUseInfo encountered them.
func (u *UseInfo) Users(v ir.Value) []ir.Instruction { return u.users[v] }

// shadowMemPrefix names the shadow-memory/debug call family: calls to it
// are ignored entirely, since they neither read nor write anything the
// numeric abstraction tracks.
const shadowMemPrefix = "shadow.mem."

func isShadowOrDebugCall(instr ir.Instruction) bool {
	call, ok := instr.(*ir.Call)
	if !ok {
		return false
	}
	name := call.Callee.Name()
	return len(name) >= len(shadowMemPrefix) && name[:len(shadowMemPrefix)] == shadowMemPrefix
}

// AllUsesAreNonTrackMemory reports whether every use of v is one of: a
// load/store whose value type is non-integer, a call to the shadow-
// memory/debug family, or a cast that itself transitively satisfies this
// same property. Used by Cast and GEP lowering to elide work whose
// downstream consumers never look at the numeric result. The caller
// strips a leading cast on v itself before this predicate is evaluated.
func (u *UseInfo) AllUsesAreNonTrackMemory(v ir.Value) bool {
	return u.allUsesAreNonTrackMemory(v, make(map[ir.Value]bool))
}

func (u *UseInfo) allUsesAreNonTrackMemory(v ir.Value, visiting map[ir.Value]bool) bool {
	if visiting[v] {
		// A cast cycle can't occur in well-formed SSA, but guard
		// against infinite recursion defensively.
		return true
	}
	visiting[v] = true

	users := u.users[v]
	if len(users) == 0 {
		return false
	}
	for _, user := range users {
		switch instr := user.(type) {
		case *ir.Load:
			if ir.IsInteger(instr.Type()) {
				return false
			}
		case *ir.Store:
			if ir.IsInteger(instr.Val.Type()) {
				return false
			}
		case *ir.Convert:
			if !u.allUsesAreNonTrackMemory(instr, visiting) {
				return false
			}
		default:
			if isShadowOrDebugCall(user) {
				continue
			}
			return false
		}
	}
	return true
}

// onlyUsesAreAddressIndices reports whether every use of v is a GEP
// instruction consuming v strictly as one of its element indices: such a
// cast contributes nothing once GEP lowering strips it from the index
// expression directly.
func (u *UseInfo) onlyUsesAreAddressIndices(v ir.Value) bool {
	users := u.users[v]
	if len(users) == 0 {
		return false
	}
	for _, user := range users {
		gep, ok := user.(*ir.Gep)
		if !ok {
			return false
		}
		used := false
		for _, idx := range gep.Indices {
			if idx.Kind == ir.GepElement && idx.Elem == v {
				used = true
			}
		}
		if !used {
			return false
		}
	}
	return true
}
