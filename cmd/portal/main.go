package main

import (
	"go.uber.org/fx"

	"ExamPortal/internal/bootstrap"
	pkg "ExamPortal/pkg/routes"
)

func main() {
	bootstrap.LoadEnv()

	app := fx.New(pkg.EchoModules)
	app.Run()
}
