// bridges: fixtures.PointPair.First$bridgeO
package main

type Shape interface {
	Area() float64
	Scale(f float64) Shape
}

type Square struct{ side float64 }

func (s Square) Area() float64         { return s.side * s.side }
func (s Square) Scale(f float64) Shape { return Square{s.side * f} }

type Pair[T any] interface {
	First() T
}

type Point struct{ X, Y int }

type PointPair struct{ a, b Point }

func (p PointPair) First() Point { return p.a }

func first[T any](p Pair[T]) T { return p.First() }

func main() {
	var s Shape = Square{2}
	println(s.Scale(2).Area(), first[Point](PointPair{}).X)
}
