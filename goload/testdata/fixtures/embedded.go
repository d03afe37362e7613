// bridges: fixtures.Counter.Next$bridgeO fixtures.Wrapped.Next$bridgeO
package main

type Source[T any] interface {
	Next() T
}

type Counter struct{ n int }

func (c *Counter) Next() int {
	c.n++
	return c.n
}

type Wrapped struct {
	*Counter
	label string
}

func drain(s Source[int], n int) int {
	total := 0
	for i := 0; i < n; i++ {
		total += s.Next()
	}
	return total
}

func main() {
	w := &Wrapped{Counter: &Counter{}, label: "w"}
	println(drain(w, 3), w.Next())
}
