/*
Copyright © 2025 Assetlift Authors
*/
package main

import "github.com/assetlift/assetlift/cmd"

func main() {
	cmd.Execute()
}
