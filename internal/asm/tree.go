package asm

import (
	"fmt"
	"sort"

	"github.com/m1gwings/treedrawer/tree"
)

// StatementTree draws the laid-out statements and their operand
// expressions. Call after ProcessFile.
func (s *State) StatementTree() *tree.Tree {
	root := tree.NewTree(tree.NodeString("asm"))
	for _, st := range s.stmts {
		switch st.kind {
		case stmtInstr:
			node := root.AddChild(tree.NodeString(fmt.Sprintf("%04x %s", st.addr, st.rule.Mnemonic())))
			names := make([]string, 0, len(st.args))
			for name := range st.args {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				arg := node.AddChild(tree.NodeString(name))
				addExpr(arg, st.args[name])
			}
		case stmtData:
			node := root.AddChild(tree.NodeString(fmt.Sprintf("%04x data[%d]", st.addr, st.size)))
			for _, item := range st.items {
				if item.expr == nil {
					node.AddChild(tree.NodeString(fmt.Sprintf("%q", item.raw)))
					continue
				}
				addExpr(node, item.expr)
			}
		case stmtFill:
			root.AddChild(tree.NodeString(fmt.Sprintf("%04x fill[%d]", st.addr, st.size)))
		}
	}
	return root
}

func addExpr(parent *tree.Tree, e Expr) {
	switch e := e.(type) {
	case *NumberExpr:
		parent.AddChild(tree.NodeString(fmt.Sprint(e.Value)))
	case *SymbolExpr:
		parent.AddChild(tree.NodeString(e.Name))
	case *PCExpr:
		parent.AddChild(tree.NodeString("$"))
	case *UnaryExpr:
		addExpr(parent.AddChild(tree.NodeString(e.Op)), e.X)
	case *SliceExpr:
		addExpr(parent.AddChild(tree.NodeString(fmt.Sprintf("`%d", e.Bits))), e.X)
	case *BinaryExpr:
		node := parent.AddChild(tree.NodeString(e.Op))
		addExpr(node, e.L)
		addExpr(node, e.R)
	}
}
