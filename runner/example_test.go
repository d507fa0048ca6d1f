package runner_test

import (
	"context"
	"fmt"
	"log"

	"github.com/amonks/taskopy/runner"
	"github.com/amonks/taskopy/tasks"
)

// In this example, we build our own task in Go and run it as an HTTP caller
// would, waiting for its result.
func Example_bringYourOwnTasks() {
	cfg := tasks.NewConfig("greet")
	cfg.HTTP, cfg.Result = true, true

	greet := tasks.NewTaskFromFunc(cfg, tasks.WithResult(func(ctx context.Context, call tasks.Call) (string, error) {
		return "hello, " + call.Params["who"], nil
	}))

	r := runner.New(runner.Options{Load: runner.Static(tasks.NewLibrary(greet))})
	if err := r.Reload(); err != nil {
		log.Fatal(err)
	}
	defer r.Shutdown(context.Background())

	e, err := r.Run("greet", tasks.Call{Caller: tasks.CallerHTTP, Params: map[string]string{"who": "world"}})
	if err != nil {
		log.Fatal(err)
	}
	result, err := e.Wait(context.Background())
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(result)
	// Output: hello, world
}
