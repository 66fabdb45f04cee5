package rtdec_test

import (
	"context"
	"fmt"
	"log"

	"github.com/qecflow/rtdec"
	"github.com/qecflow/rtdec/code"
)

func Example() {
	desc, err := code.CyclicRepetitionCode(3)
	if err != nil {
		log.Fatal(err)
	}

	session, err := rtdec.Matching(desc).Uniform(0.001).Build()
	if err != nil {
		log.Fatal(err)
	}
	defer session.Close()

	// Checks 0 and 2 fire: the shared data qubit 2 flipped.
	out, err := session.Decode(context.Background(), 1, []bool{true, false, true})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(out.Status, out.Update.Flips.ToArray())
	// Output: ok [2]
}
