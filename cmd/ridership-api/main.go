package main

import (
	"github.com/k-shtanenko/ridership-api/internal/bootstrap"
)

func main() {
	bootstrap.Bootstrap()
}
