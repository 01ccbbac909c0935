package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/term"

	"github.com/trezcool/studentrecords/client"
	"github.com/trezcool/studentrecords/client/form"
	"github.com/trezcool/studentrecords/core/student"
)

const minSuggestionRatio = 0.6

var (
	isTerminalFunc = term.IsTerminal // mockable

	errHelp                 = errors.New("help provided")
	errAborted              = errors.New("aborted")
	errConfirmationRequired = errors.New("not a terminal: pass -yes to confirm")

	commands = []string{"list", "show", "add", "edit", "delete"}
)

type commandLine struct {
	store      *client.Store
	validate   *validator.Validate
	translator ut.Translator
	in         io.Reader
	out        io.Writer
	inFd       int
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  list [-ordering FIELD[,-FIELD...]] - list all students")
	fmt.Fprintln(cli.out, "  show -id ID - show a student")
	fmt.Fprintln(cli.out, "  add -studentId ID -firstName NAME -lastName NAME -email EMAIL -dob YYYY-MM-DD -department DEPT [-enrollmentYear YEAR] [-isActive BOOL]")
	fmt.Fprintln(cli.out, "  edit -id ID [-firstName NAME] [-lastName NAME] [-email EMAIL] [-dob YYYY-MM-DD] [-department DEPT] [-enrollmentYear YEAR] [-isActive BOOL]")
	fmt.Fprintln(cli.out, "  delete -id ID [-yes] - delete a student (asks for confirmation)")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	ctx := context.Background()

	listCmd := flag.NewFlagSet("list", flag.ContinueOnError)
	listOrdering := listCmd.String("ordering", "", "Comma-separated fields to sort by, \"-\" for descending.")

	showCmd := flag.NewFlagSet("show", flag.ContinueOnError)
	showID := showCmd.String("id", "", "The student's id.")

	addCmd := flag.NewFlagSet("add", flag.ContinueOnError)
	fieldFlags(addCmd)

	editCmd := flag.NewFlagSet("edit", flag.ContinueOnError)
	editID := editCmd.String("id", "", "The student's id.")
	fieldFlags(editCmd)

	deleteCmd := flag.NewFlagSet("delete", flag.ContinueOnError)
	deleteID := deleteCmd.String("id", "", "The student's id.")
	deleteYes := deleteCmd.Bool("yes", false, "Skip the confirmation.")

	for _, fs := range []*flag.FlagSet{listCmd, showCmd, addCmd, editCmd, deleteCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "list":
		if err := listCmd.Parse(args[2:]); err != nil {
			return err
		}
		var ordering []string
		if *listOrdering != "" {
			ordering = strings.Split(*listOrdering, ",")
		}
		return cli.list(ctx, ordering...)
	case "show":
		if err := showCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *showID == "" {
			showCmd.Usage()
			return errHelp
		}
		return cli.show(ctx, *showID)
	case "add":
		if err := addCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.add(ctx, setFlags(addCmd))
	case "edit":
		if err := editCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *editID == "" {
			editCmd.Usage()
			return errHelp
		}
		values := setFlags(editCmd)
		delete(values, "id")
		return cli.edit(ctx, *editID, values)
	case "delete":
		if err := deleteCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *deleteID == "" {
			deleteCmd.Usage()
			return errHelp
		}
		return cli.delete(ctx, *deleteID, *deleteYes)
	default:
		if s := suggest(args[1]); s != "" {
			fmt.Fprintf(cli.out, "unknown command %q, did you mean %q?\n", args[1], s)
		}
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) list(ctx context.Context, ordering ...string) error {
	students, err := cli.store.Refresh(ctx, ordering...)
	if err != nil {
		return err
	}
	if len(students) == 0 {
		fmt.Fprintln(cli.out, "No students found")
		return nil
	}

	w := tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTUDENT ID\tNAME\tEMAIL\tDEPARTMENT\tYEAR\tSTATUS")
	for _, s := range students {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n", s.ID, s.StudentID, s.FullName(), s.Email, s.Department, s.EnrollmentYear, status(s))
	}
	return w.Flush()
}

func (cli *commandLine) show(ctx context.Context, id string) error {
	s, err := cli.store.Get(ctx, id)
	if err != nil {
		return err
	}
	cli.printStudent(s)
	return nil
}

func (cli *commandLine) add(ctx context.Context, values map[string]string) error {
	f := form.New(cli.validate, cli.translator)
	if err := setAll(f, values); err != nil {
		return err
	}

	var created student.Student
	err := f.Submit(ctx, func(ctx context.Context, draft student.NewStudent) error {
		s, err := cli.store.Create(ctx, draft)
		created = s
		return err
	})
	if err != nil {
		cli.printFieldErrors(f)
		return err
	}

	fmt.Fprintln(cli.out, "Student added")
	cli.printStudent(created)
	return nil
}

func (cli *commandLine) edit(ctx context.Context, id string, values map[string]string) error {
	s, err := cli.store.Get(ctx, id)
	if err != nil {
		return err
	}

	f := form.NewEdit(cli.validate, cli.translator, s)
	if err = setAll(f, values); err != nil {
		return err
	}
	if f.Changes().IsEmpty() {
		fmt.Fprintln(cli.out, "Nothing to update")
		return nil
	}

	var updated student.Student
	err = f.Submit(ctx, func(ctx context.Context, _ student.NewStudent) error {
		s, err := cli.store.Update(ctx, id, f.Changes())
		updated = s
		return err
	})
	if err != nil {
		cli.printFieldErrors(f)
		return err
	}

	fmt.Fprintln(cli.out, "Student updated")
	cli.printStudent(updated)
	return nil
}

func (cli *commandLine) delete(ctx context.Context, id string, yes bool) error {
	if !yes {
		s, err := cli.store.Get(ctx, id)
		if err != nil {
			return err
		}
		ok, err := cli.confirm(fmt.Sprintf("Delete %s (%s)?", s.FullName(), s.StudentID))
		if err != nil {
			return err
		}
		if !ok {
			return errAborted
		}
	}

	msg, err := cli.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, msg)
	return nil
}

// confirm asks a yes/no question on the terminal. Anything but y/yes is a no.
func (cli *commandLine) confirm(question string) (bool, error) {
	if !isTerminalFunc(cli.inFd) {
		return false, errConfirmationRequired
	}
	fmt.Fprintf(cli.out, "%s [y/N]: ", question)
	answer, err := bufio.NewReader(cli.in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}

func (cli *commandLine) printStudent(s student.Student) {
	w := tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID:\t%s\n", s.ID)
	fmt.Fprintf(w, "Student ID:\t%s\n", s.StudentID)
	fmt.Fprintf(w, "Name:\t%s\n", s.FullName())
	fmt.Fprintf(w, "Email:\t%s\n", s.Email)
	fmt.Fprintf(w, "Date of birth:\t%s\n", s.DOB)
	fmt.Fprintf(w, "Department:\t%s\n", s.Department)
	fmt.Fprintf(w, "Enrollment year:\t%d\n", s.EnrollmentYear)
	fmt.Fprintf(w, "Status:\t%s\n", status(s))
	_ = w.Flush()
}

func (cli *commandLine) printFieldErrors(f *form.Form) {
	errs := f.Errors()
	for _, field := range form.Fields {
		if msg, ok := errs[field]; ok {
			fmt.Fprintf(cli.out, "  %s: %s\n", field, msg)
		}
	}
}

// fieldFlags registers one string flag per form field.
func fieldFlags(fs *flag.FlagSet) {
	for _, field := range form.Fields {
		fs.String(field, "", "The student's "+field+".")
	}
}

// setFlags returns the flags explicitly set on the command line.
func setFlags(fs *flag.FlagSet) map[string]string {
	values := make(map[string]string)
	fs.Visit(func(f *flag.Flag) {
		values[f.Name] = f.Value.String()
	})
	return values
}

func setAll(f *form.Form, values map[string]string) error {
	for _, field := range form.Fields {
		if v, ok := values[field]; ok {
			if err := f.Set(field, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func status(s student.Student) string {
	if s.IsActive {
		return "active"
	}
	return "inactive"
}

// suggest returns the known command closest to cmd, if close enough.
func suggest(cmd string) string {
	best, bestRatio := "", 0.0
	for _, c := range commands {
		ratio := difflib.NewMatcher(strings.Split(cmd, ""), strings.Split(c, "")).Ratio()
		if ratio > bestRatio {
			best, bestRatio = c, ratio
		}
	}
	if bestRatio < minSuggestionRatio {
		return ""
	}
	return best
}
