// Command coffeeapi serves the roaster and coffee catalogue over HTTP.
package main

func main() {
	Execute()
}
