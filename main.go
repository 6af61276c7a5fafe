package main

import "github.com/crapp/labpowerqt-sub000/cmd"

func main() {
	cmd.Execute()
}
