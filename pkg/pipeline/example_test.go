package pipeline_test

import (
	"context"
	"fmt"

	"github.com/matzehuels/risekit/pkg/pipeline"
)

func ExampleRunner_Execute() {
	src := `
[viewport]
width = 300
height = 100

[[roots]]
key = "bar"
place = { left = "0", top = "0", width = "100%", height = "100%" }
position = { kind = "grid", cols = 3 }

  [[roots.children]]
  type = "Rect"
  key = "a"

  [[roots.children]]
  type = "Rect"
  key = "b"
`
	runner := pipeline.NewRunner(nil, nil, nil)
	res, err := runner.Execute(context.Background(), pipeline.Options{Source: []byte(src)})
	if err != nil {
		fmt.Println(err)
		return
	}
	b := res.Hydrated.Tree.Find("b").AbsBounds()
	fmt.Println(res.Stats.Widgets, "widgets live")
	fmt.Printf("b at %g,%g %gx%g\n", b.X, b.Y, b.W, b.H)
	// Output:
	// 3 widgets live
	// b at 100,0 100x100
}
