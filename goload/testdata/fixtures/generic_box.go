// bridges: fixtures.IntBox.Get$bridgeO fixtures.IntBox.Put$bridgeNI
package main

type Box[T any] interface {
	Get() T
	Put(v T)
}

type IntBox struct{ v int }

func (b *IntBox) Get() int  { return b.v }
func (b *IntBox) Put(v int) { b.v = v }

func swap(b Box[int], v int) int {
	old := b.Get()
	b.Put(v)
	return old
}

func main() {
	println(swap(&IntBox{v: 1}, 2))
}
