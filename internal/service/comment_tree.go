package service

import (
	"sort"

	"github.com/00xu00/blog/internal/models"
)

// assembleTree attaches nodes below roots using their ParentID, keeping
// siblings in creation order, and marks the nodes in liked. Roots are
// returned in the order given. Nodes whose parent is neither a root nor
// another node are dropped.
func assembleTree(roots, nodes []*models.Comment, liked map[uint]struct{}) []*models.Comment {
	children := make(map[uint][]*models.Comment, len(nodes))
	for _, n := range nodes {
		if n.ParentID == nil {
			continue
		}
		children[*n.ParentID] = append(children[*n.ParentID], n)
	}
	for _, list := range children {
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].CreatedAt.Equal(list[j].CreatedAt) {
				return list[i].ID < list[j].ID
			}
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		})
	}

	var attach func(c *models.Comment)
	attach = func(c *models.Comment) {
		_, c.IsLiked = liked[c.ID]
		c.Replies = children[c.ID]
		if c.Replies == nil {
			c.Replies = []*models.Comment{}
		}
		for _, r := range c.Replies {
			attach(r)
		}
	}

	out := make([]*models.Comment, 0, len(roots))
	for _, r := range roots {
		attach(r)
		out = append(out, r)
	}
	return out
}

func commentIDs(groups ...[]*models.Comment) []uint {
	var ids []uint
	for _, g := range groups {
		for _, c := range g {
			ids = append(ids, c.ID)
		}
	}
	return ids
}
