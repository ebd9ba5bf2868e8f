// Command eqlctl is a small demo front-end for the EQL engine: it
// loads a toy symbol graph and runs a handful of queries/rules against
// it, printing the results. It exists to exercise the engine end to
// end from the command line rather than only from tests.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gitrdm/goeql/internal/symgraph"
	"github.com/gitrdm/goeql/pkg/eql"
)

// Employee is the toy domain type the demo graph is populated with.
type Employee struct {
	Name string
	Age  int
	Dept string
}

func main() {
	root := &cobra.Command{
		Use:   "eqlctl",
		Short: "Run demo EQL queries against an in-memory symbol graph",
	}

	var warnThreshold int
	root.PersistentFlags().IntVar(&warnThreshold, "cartesian-warn-threshold", 20,
		"log a warning when a query's unbound variable count reaches this many")

	root.AddCommand(newQueryCmd(&warnThreshold))
	root.AddCommand(newInferCmd(&warnThreshold))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildDemoGraph(ctx context.Context) (*symgraph.Graph, error) {
	g := symgraph.New()
	g.RegisterType("Employee", []string{"Name", "Age", "Dept"})
	employees := []interface{}{
		&Employee{Name: "Ada", Age: 36, Dept: "Engineering"},
		&Employee{Name: "Grace", Age: 45, Dept: "Engineering"},
		&Employee{Name: "Alan", Age: 41, Dept: "Research"},
		&Employee{Name: "Margaret", Age: 52, Dept: "Engineering"},
	}
	if _, err := g.LoadBulk(ctx, "Employee", employees); err != nil {
		return nil, err
	}
	return g, nil
}

func newQueryCmd(warnThreshold *int) *cobra.Command {
	var dept string
	cmd := &cobra.Command{
		Use:   "query",
		Short: "List every Employee, optionally filtered by department",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			g, err := buildDemoGraph(ctx)
			if err != nil {
				return err
			}
			sess := eql.NewSession(
				eql.WithSymbolGraph(g),
				eql.WithAccessor(symgraph.NewAccessor(eql.DefaultAccessor)),
				eql.WithEngineCartesianWarnThreshold(*warnThreshold),
			)
			employee := sess.From("employee", "Employee", false)
			var body eql.Node = employee
			if dept != "" {
				deptAttr := sess.Attribute(employee, "Dept")
				body = sess.And(employee, sess.Eq(deptAttr, sess.Literal(dept)))
			}
			query := sess.EntityQuery(body, employee)
			results := query.Results(ctx, nil)
			for _, b := range results {
				v := b[employee.ID()].Value.(*symgraph.Instance).Value.(*Employee)
				fmt.Printf("%s (%d, %s)\n", v.Name, v.Age, v.Dept)
			}
			fmt.Printf("%d result(s)\n", len(results))
			return nil
		},
	}
	cmd.Flags().StringVar(&dept, "dept", "", "filter by department")
	return cmd
}

func newInferCmd(warnThreshold *int) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "infer",
		Short: "Run a refinement rule that tags senior engineers",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			g, err := buildDemoGraph(ctx)
			if err != nil {
				return err
			}
			sess := eql.NewSession(
				eql.WithSymbolGraph(g),
				eql.WithAccessor(symgraph.NewAccessor(eql.DefaultAccessor)),
				eql.WithEngineCartesianWarnThreshold(*warnThreshold),
			)
			employee := sess.From("employee", "Employee", false)
			ageAttr := sess.Attribute(employee, "Age")
			deptAttr := sess.Attribute(employee, "Dept")
			condition := sess.And(
				employee,
				sess.Gte(ageAttr, sess.Literal(40)),
				sess.Eq(deptAttr, sess.Literal("Engineering")),
			)
			rule := sess.NewRefinementRule(condition, employee)
			for _, b := range sess.Infer(ctx, rule, nil) {
				v := b[employee.ID()].Value.(*symgraph.Instance).Value.(*Employee)
				fmt.Printf("senior engineer: %s\n", v.Name)
			}
			return nil
		},
	}
	return cmd
}
