package tree

import "github.com/karanagg166/playto/internal/models"

// ThreadNode is a comment with its replies attached, as rendered in a thread
// view.
type ThreadNode struct {
	models.Comment
	Replies []*ThreadNode `json:"replies"`
}

// BuildForest turns a preorder-ordered slice of comments into the n-ary
// forest it encodes, in a single linear pass. A stack holds the currently
// open ancestors; interval containment decides attachment: the next row
// belongs to the deepest stack entry whose interval still contains it, so
// entries with smaller rgt are popped first.
func BuildForest(rows []models.Comment) []*ThreadNode {
	var roots []*ThreadNode
	var stack []*ThreadNode

	for _, row := range rows {
		node := &ThreadNode{Comment: row, Replies: []*ThreadNode{}}

		for len(stack) > 0 && row.Rgt > stack[len(stack)-1].Rgt {
			stack = stack[:len(stack)-1]
		}

		if len(stack) == 0 {
			roots = append(roots, node)
		} else {
			top := stack[len(stack)-1]
			top.Replies = append(top.Replies, node)
		}
		stack = append(stack, node)
	}
	return roots
}
