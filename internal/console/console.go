// Package console serves the ledger through an interactive text menu.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/amountpkg"
	"github.com/go-petr/pet-ledger/pkg/workerpool"
)

// Service provides the ledger operations the console needs.
type Service interface {
	CreateAccount(ctx context.Context, arg domain.CreateAccountParams) (domain.Account, error)
	Deposit(ctx context.Context, accountID, amount int64) (domain.Account, error)
	Withdraw(ctx context.Context, accountID, amount int64) (domain.Account, error)
	Transfer(ctx context.Context, arg domain.TransferParams) (domain.TransferResult, error)
	GetByNumber(ctx context.Context, number string) (domain.Account, error)
}

const menu = `
Choose an option:
1. Create Account
2. Deposit
3. Withdraw
4. Transfer
5. Display Account Info
6. Exit
`

// Console reads menu selections from in and executes each one on the worker pool.
type Console struct {
	service     Service
	pool        *workerpool.Pool
	in          *bufio.Reader
	out         io.Writer
	interactive bool
	logger      zerolog.Logger
	failure     *color.Color
}

// Option configures a Console.
type Option func(*Console)

// WithInteractive enables prompts. Set it when in is a terminal.
func WithInteractive(interactive bool) Option {
	return func(c *Console) {
		c.interactive = interactive
	}
}

// WithLogger sets the base logger of every command.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Console) {
		c.logger = l
	}
}

// New returns a console bound to the given service and pool.
func New(s Service, pool *workerpool.Pool, in io.Reader, out io.Writer, opts ...Option) *Console {
	c := &Console{
		service: s,
		pool:    pool,
		in:      bufio.NewReader(in),
		out:     out,
		logger:  zerolog.Nop(),
		failure: color.New(color.FgRed),
	}

	for _, opt := range opts {
		opt(c)
	}

	if !c.interactive {
		c.failure.DisableColor()
	}

	return c
}

// errExit ends the menu loop.
var errExit = errors.New("exit")

// Run serves menu selections until exit, end of input or ctx cancellation.
//
// The pool is closed on return, after in-flight commands have finished.
func (c *Console) Run(ctx context.Context) error {
	defer c.pool.Close()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if c.interactive {
			fmt.Fprint(c.out, menu)
		}

		line, err := c.readLine()
		if err != nil {
			return nil
		}

		if line == "" {
			continue
		}

		err = c.handle(ctx, line)

		switch {
		case errors.Is(err, errExit):
			fmt.Fprintln(c.out, "Exiting...")
			return nil
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			c.fail("Error executing task: %v", err)
		}
	}
}

func (c *Console) handle(ctx context.Context, choice string) error {
	var cmd command

	switch choice {
	case "1":
		cmd = c.createAccount
	case "2":
		cmd = c.deposit
	case "3":
		cmd = c.withdraw
	case "4":
		cmd = c.transfer
	case "5":
		cmd = c.displayAccountInfo
	case "6":
		return errExit
	default:
		fmt.Fprintln(c.out, "Invalid option, please choose again.")
		return nil
	}

	job, err := cmd()
	if err != nil {
		return err
	}

	if job == nil {
		return nil
	}

	l := c.logger.With().Str("command_id", uuid.NewString()).Logger()

	return c.pool.Submit(l.WithContext(ctx), job)
}

// command collects its input from the console and returns the job to run.
// A nil job means the input was rejected and already reported.
type command func() (workerpool.Job, error)

func (c *Console) createAccount() (workerpool.Job, error) {
	number, err := c.ask("Enter Account Number: ")
	if err != nil {
		return nil, err
	}

	holder, err := c.ask("Enter Holder Name: ")
	if err != nil {
		return nil, err
	}

	rawBalance, err := c.ask("Enter Initial Balance: ")
	if err != nil {
		return nil, err
	}

	balance, err := amountpkg.Parse(rawBalance)
	if err != nil {
		c.fail("Failed to create account: %v", err)
		return nil, nil
	}

	arg := domain.CreateAccountParams{
		Number:         number,
		HolderName:     holder,
		InitialBalance: balance,
	}

	return func(ctx context.Context) error {
		account, err := c.service.CreateAccount(ctx, arg)

		switch {
		case errors.Is(err, domain.ErrDuplicateAccountNumber):
			c.fail("Error: Duplicated account number")
		case err != nil:
			c.fail("Failed to create account: %v", err)
		default:
			fmt.Fprintf(c.out, "Account created successfully with Account Number: %s\n", account.Number)
		}

		return nil
	}, nil
}

func (c *Console) deposit() (workerpool.Job, error) {
	id, amount, ok, err := c.askMutation("Enter Deposit Amount: ", "Deposit failed")
	if err != nil || !ok {
		return nil, err
	}

	return func(ctx context.Context) error {
		account, err := c.service.Deposit(ctx, id, amount)
		if err != nil {
			c.fail("Deposit failed: %v", err)
			return nil
		}

		fmt.Fprintf(c.out, "Deposited successfully. New Balance: %d\n", account.Balance)

		return nil
	}, nil
}

func (c *Console) withdraw() (workerpool.Job, error) {
	id, amount, ok, err := c.askMutation("Enter Withdraw Amount: ", "Withdrawal failed")
	if err != nil || !ok {
		return nil, err
	}

	return func(ctx context.Context) error {
		account, err := c.service.Withdraw(ctx, id, amount)

		switch {
		case errors.Is(err, domain.ErrInsufficientFunds):
			c.fail("Insufficient Account Balance")
		case err != nil:
			c.fail("Withdrawal failed: %v", err)
		default:
			fmt.Fprintf(c.out, "Withdrawn successfully. New Balance: %d\n", account.Balance)
		}

		return nil
	}, nil
}

func (c *Console) transfer() (workerpool.Job, error) {
	rawFrom, err := c.ask("Enter From Account Id: ")
	if err != nil {
		return nil, err
	}

	rawTo, err := c.ask("Enter To Account Id: ")
	if err != nil {
		return nil, err
	}

	rawAmount, err := c.ask("Enter Transfer Amount: ")
	if err != nil {
		return nil, err
	}

	arg, err := parseTransfer(rawFrom, rawTo, rawAmount)
	if err != nil {
		c.fail("Transfer failed: %v", err)
		return nil, nil
	}

	return func(ctx context.Context) error {
		if _, err := c.service.Transfer(ctx, arg); err != nil {
			c.fail("Transfer failed: %v", err)
			return nil
		}

		fmt.Fprintf(c.out, "Transfer successful from Account %d to Account %d\n", arg.FromAccountID, arg.ToAccountID)

		return nil
	}, nil
}

func (c *Console) displayAccountInfo() (workerpool.Job, error) {
	number, err := c.ask("Enter Your Account Number: ")
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context) error {
		account, err := c.service.GetByNumber(ctx, number)

		switch {
		case errors.Is(err, domain.ErrAccountNotFound):
			c.fail("Error: Account does not exist")
		case err != nil:
			c.fail("Display account info failed: %v", err)
		default:
			fmt.Fprintf(c.out, "Your Account Info : \n Account number %s\n Account Holder name : %s\n Your balance is : %d\n",
				account.Number, account.HolderName, account.Balance)
		}

		return nil
	}, nil
}

// askMutation reads an account id and an amount. ok is false when the input
// was invalid and has been reported under failPrefix.
func (c *Console) askMutation(amountPrompt, failPrefix string) (id, amount int64, ok bool, err error) {
	rawID, err := c.ask("Enter Account Id: ")
	if err != nil {
		return 0, 0, false, err
	}

	rawAmount, err := c.ask(amountPrompt)
	if err != nil {
		return 0, 0, false, err
	}

	id, err = parseID(rawID)
	if err != nil {
		c.fail("%s: %v", failPrefix, err)
		return 0, 0, false, nil
	}

	amount, err = amountpkg.Parse(rawAmount)
	if err != nil {
		c.fail("%s: %v", failPrefix, err)
		return 0, 0, false, nil
	}

	return id, amount, true, nil
}

func parseTransfer(rawFrom, rawTo, rawAmount string) (domain.TransferParams, error) {
	from, err := parseID(rawFrom)
	if err != nil {
		return domain.TransferParams{}, err
	}

	to, err := parseID(rawTo)
	if err != nil {
		return domain.TransferParams{}, err
	}

	amount, err := amountpkg.Parse(rawAmount)
	if err != nil {
		return domain.TransferParams{}, err
	}

	return domain.TransferParams{FromAccountID: from, ToAccountID: to, Amount: amount}, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid account id %q", s)
	}

	return id, nil
}

func (c *Console) ask(prompt string) (string, error) {
	if c.interactive {
		fmt.Fprint(c.out, prompt)
	}

	return c.readLine()
}

// readLine returns the next trimmed input line. A final line without a
// newline is still returned; io.EOF is reported only when nothing is left.
func (c *Console) readLine() (string, error) {
	line, err := c.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", io.EOF
	}

	return strings.TrimSpace(line), nil
}

func (c *Console) fail(format string, args ...any) {
	c.failure.Fprintln(c.out, fmt.Sprintf(format, args...))
}
