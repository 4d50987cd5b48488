// Command scripts holds functions of a main package. Generated tools embed
// their source because a main package cannot be imported.
package main

import (
	"fmt"
	"strings"
)

// Shout upper-cases text and adds exclamation marks.
//
//cligen:default marks=1
func Shout(text string, marks int) string {
	return strings.ToUpper(text) + bang(marks)
}

func bang(n int) string {
	return strings.Repeat("!", n)
}

func main() {
	fmt.Println(Shout("scripts", 1))
}
