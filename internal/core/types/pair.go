package types

import "fmt"

// Pair is a directed asset pair: the taker receives Receive and pays Pay.
// Assets are fully-qualified on-chain type names.
type Pair struct {
	Receive string
	Pay     string
}

func (p Pair) String() string {
	return fmt.Sprintf("%s/%s", p.Receive, p.Pay)
}

// Inverse returns the pair with the two sides swapped.
func (p Pair) Inverse() Pair {
	return Pair{Receive: p.Pay, Pay: p.Receive}
}
