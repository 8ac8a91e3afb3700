package main

import "library/services/book/internal"

func main() {
	internal.Setup()
}
