package ir

// Operands returns the Value operands instr reads, in declared order.
// Block/target references (Jump.Target, If.TrueBlk/FalseBlk) are not
// values and are excluded.
func Operands(instr Instruction) []Value {
	switch i := instr.(type) {
	case *BinOp:
		return []Value{i.X, i.Y}
	case *Cmp:
		return []Value{i.X, i.Y}
	case *Phi:
		return append([]Value(nil), i.Edges...)
	case *Convert:
		return []Value{i.X}
	case *Alloc:
		return nil
	case *Load:
		return []Value{i.Addr}
	case *Store:
		return []Value{i.Addr, i.Val}
	case *Gep:
		ops := []Value{i.Base}
		for _, idx := range i.Indices {
			if idx.Kind == GepElement {
				ops = append(ops, idx.Elem)
			}
		}
		return ops
	case *Select:
		return []Value{i.Cond, i.X, i.Y}
	case *Call:
		ops := append([]Value(nil), i.Args...)
		if i.Callee.Indirect != nil {
			ops = append(ops, i.Callee.Indirect)
		}
		return ops
	case *Jump:
		return nil
	case *If:
		return []Value{i.Cond}
	case *Return:
		if i.Val == nil {
			return nil
		}
		return []Value{i.Val}
	case *Unreachable:
		return nil
	default:
		return nil
	}
}
