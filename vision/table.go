package vision

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
)

// BlocksTable renders blocks as a table with columns of id, pixel center, color and position.
func BlocksTable(blocks []*Block) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"ID", "Center", "Color", "Space", "Position"})
	for _, b := range blocks {
		space, pos := "", ""
		if b.Position != nil {
			space = b.Position.Space.String()
			p := b.Position.Point
			if b.Position.Space == DepthSpace {
				pos = fmt.Sprintf("Depth:%.0f", p.Z)
			} else {
				pos = fmt.Sprintf("X:%.3f, Y:%.3f, Z:%.3f", p.X, p.Y, p.Z)
			}
		}
		t.AppendRow(table.Row{
			b.ID,
			fmt.Sprintf("(%d, %d)", b.PixelCenter.X, b.PixelCenter.Y),
			b.Color.Hex(),
			space,
			pos,
		})
	}
	return t.Render()
}
