package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"syscall"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"maze.io/x/duration"

	"github.com/bolao-jogos/bolao/config"
	"github.com/bolao-jogos/bolao/dbutil"
	"github.com/bolao-jogos/bolao/defaults"
	"github.com/bolao-jogos/bolao/model"
	"github.com/bolao-jogos/bolao/password"
	"github.com/bolao-jogos/bolao/permission"
	"github.com/bolao-jogos/bolao/pool"
	"github.com/bolao-jogos/bolao/results"
	"github.com/bolao-jogos/bolao/state"
	"github.com/bolao-jogos/bolao/textutil"
)

var (
	clock clockwork.Clock = clockwork.NewRealClock()

	userNick    string
	userIsAdmin bool

	poolName     string
	poolGame     string
	poolCapacity int
	poolPrice    int64
	poolGated    bool

	drawSequence int
	drawNumbers  string
	drawOverride bool

	expireTime time.Time
)

func newStorage() *state.DBStorage {
	config.Init()
	db, err := dbutil.Connect()
	if err != nil {
		log.Fatalf("can't connect to database: %v", err)
	}
	return state.NewDBStorage(db)
}

func newManager() *pool.Manager {
	return pool.NewManager(clock, state.NewBuiltinFeeScheduleStorage())
}

func getKeyStatus(now time.Time, v model.CookieKeyValidity) string {
	if now.Before(v.MintFrom) {
		return "not yet active"
	}
	if now.After(v.HonorUntil) {
		return "expired"
	}
	if now.After(v.MintUntil) {
		// it's an older code, but it checks out
		return "obsolete"
	}
	return "active"
}

func listKeys(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	storage := newStorage()
	defer storage.Close()

	sc, err := storage.FetchSiteConfig(ctx)
	if err != nil {
		return fmt.Errorf("fetching site config: %w", err)
	}

	now := clock.Now()
	fmt.Printf("Current keys (as of %v):\n\n", now.Format(time.RFC3339))

	for i, key := range sc.CookieKeys {
		fmt.Printf("Key %d:\n", i+1)
		fmt.Printf("  Mint window:  %v to %v\n",
			key.Validity.MintFrom.Format(time.RFC3339),
			key.Validity.MintUntil.Format(time.RFC3339))
		fmt.Printf("  Honor until: %v\n",
			key.Validity.HonorUntil.Format(time.RFC3339))
		fmt.Printf("  Status: %v\n\n",
			getKeyStatus(now, key.Validity))
	}
	return nil
}

func rotateKeys(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	storage := newStorage()
	defer storage.Close()

	sc, err := storage.FetchSiteConfig(ctx)
	if err != nil {
		return fmt.Errorf("fetching site config: %w", err)
	}

	if err := permission.RotateCookieKeys(sc, clock.Now()); err != nil {
		return fmt.Errorf("rotating keys: %w", err)
	}

	if err := storage.SaveSiteConfig(ctx, sc); err != nil {
		return fmt.Errorf("saving updated config: %w", err)
	}

	fmt.Printf("Key rotation complete; %d keys live.\n", len(sc.CookieKeys))
	return nil
}

func readPassword() (string, error) {
	fmt.Print("Enter password: ")
	pwBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	if len(pwBytes) == 0 {
		return "", fmt.Errorf("password is required")
	}
	return string(pwBytes), nil
}

func addUser(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	storage := newStorage()
	defer storage.Close()

	if userNick == "" {
		return fmt.Errorf("nick is required")
	}

	userPassword, err := readPassword()
	if err != nil {
		return err
	}

	id, err := storage.CreateUser(ctx, userNick, password.Hash(userPassword), userIsAdmin)
	if err != nil {
		return fmt.Errorf("creating user: %w", err)
	}

	fmt.Printf("User %q added with id %d.\n", userNick, id)
	return nil
}

func listUsers(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	storage := newStorage()
	defer storage.Close()

	users, err := storage.FetchUsers(ctx)
	if err != nil {
		return fmt.Errorf("fetching users: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)

	fmt.Fprintf(w, "id\tnick\tadmin\toperator\n")
	for _, user := range users {
		fmt.Fprintf(w, "%d\t%s\t%v\t%v\n", user.UserID, user.Nick, user.IsAdmin, user.IsOperator)
	}
	w.Flush()
	return nil
}

func checkPassword(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	storage := newStorage()
	defer storage.Close()

	nick := args[0]

	userPassword, err := readPassword()
	if err != nil {
		return err
	}

	userRow, err := storage.FetchUserRow(ctx, nick)
	if err != nil {
		return fmt.Errorf("fetching user %q: %w", nick, err)
	}

	checker, err := password.NewChecker(userRow)
	if err != nil {
		return fmt.Errorf("setting up password checker: %w", err)
	}

	_, err = checker.Validate(userPassword)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return nil
	}

	fmt.Printf("ok\n")
	return nil
}

func deleteUser(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	storage := newStorage()
	defer storage.Close()

	nick := args[0]

	err := storage.DeleteUserByNick(ctx, nick)
	if err != nil {
		return fmt.Errorf("deleting user %q: %w", nick, err)
	}

	return nil
}

func cleanPasswords(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	storage := newStorage()
	defer storage.Close()

	return storage.RemoveExpiredPasswords(ctx, clock.Now())
}

func replacePassword(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	storage := newStorage()
	defer storage.Close()

	nick := args[0]

	userRow, err := storage.FetchUserRow(ctx, nick)
	if err != nil {
		return fmt.Errorf("fetching user %q: %v", nick, err)
	}

	newPassword, err := readPassword()
	if err != nil {
		return err
	}

	if expireTime.IsZero() {
		expireTime = clock.Now()
	}
	err = storage.ReplacePassword(ctx, userRow.UserID, password.Hash(newPassword), expireTime)
	if err != nil {
		return fmt.Errorf("replacing password for user %q: %w", nick, err)
	}

	fmt.Printf("Password replaced for user %q. Old passwords expire at %v.\n", nick, expireTime)
	return nil
}

func listPools(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	storage := newStorage()
	defer storage.Close()

	o, err := storage.FetchOverview(ctx, 0, 1000)
	if err != nil {
		return fmt.Errorf("fetching pools: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)

	fmt.Fprintf(w, "id\tname\tgame\tstatus\tentries\tprice\n")
	for _, slug := range o.Slugs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d/%d\t%s\n",
			slug.PoolID, slug.Name, slug.GameType, slug.Status,
			slug.ParticipantCount, slug.Capacity,
			textutil.FormatCentavos(slug.PricePerEntry))
	}
	w.Flush()
	return nil
}

func createPool(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	storage := newStorage()
	defer storage.Close()

	if poolName == "" {
		return fmt.Errorf("name is required")
	}

	gt, err := model.ParseGameType(poolGame)
	if err != nil {
		return err
	}

	p, err := defaults.Pool(gt)
	if err != nil {
		return err
	}
	p.Name = poolName
	p.CreatedAt = clock.Now().UnixMilli()
	if poolCapacity > 0 {
		p.Capacity = poolCapacity
	}
	if poolPrice > 0 {
		p.PricePerEntry = poolPrice
	}
	p.RequiresCode = poolGated

	id, err := storage.CreatePool(ctx, p)
	if err != nil {
		return fmt.Errorf("creating pool: %w", err)
	}

	fmt.Printf("Pool %q created with id %d.\n", poolName, id)
	return nil
}

func mintCode(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	storage := newStorage()
	defer storage.Close()

	var poolID int64
	if _, err := fmt.Sscanf(args[0], "%d", &poolID); err != nil {
		return fmt.Errorf("bad pool id %q", args[0])
	}

	if _, err := storage.FetchPool(ctx, poolID); err != nil {
		return fmt.Errorf("fetching pool %d: %w", poolID, err)
	}

	ac := &model.AccessCode{
		Code:     uuid.NewString(),
		PoolID:   poolID,
		MintedAt: clock.Now().UnixMilli(),
	}
	if err := storage.CreateAccessCode(ctx, ac); err != nil {
		return fmt.Errorf("minting access code: %w", err)
	}

	fmt.Println(ac.Code)
	return nil
}

func fetchDraw(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	config.Init()

	gt, err := model.ParseGameType(args[0])
	if err != nil {
		return err
	}

	client := results.NewClient(config.ResultsAPIURL())
	res, err := client.Latest(ctx, gt)
	if err != nil {
		return fmt.Errorf("fetching latest draw: %w", err)
	}

	fmt.Printf("Contest %d (%s): %s\n", res.Contest, res.Date, textutil.JoinInts(res.Numbers, " "))
	return nil
}

func recordDraw(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	storage := newStorage()
	defer storage.Close()

	var poolID int64
	if _, err := fmt.Sscanf(args[0], "%d", &poolID); err != nil {
		return fmt.Errorf("bad pool id %q", args[0])
	}

	numbers, err := textutil.ParseInts(drawNumbers)
	if err != nil {
		return fmt.Errorf("parsing numbers: %w", err)
	}

	p, err := storage.FetchPool(ctx, poolID)
	if err != nil {
		return fmt.Errorf("fetching pool %d: %w", poolID, err)
	}

	// Same validation and transitions the server applies.
	mgr := newManager()
	if err := mgr.RecordDraw(p, drawSequence, numbers, drawOverride); err != nil {
		return fmt.Errorf("recording draw: %w", err)
	}

	if err := storage.SavePool(ctx, p); err != nil {
		return fmt.Errorf("saving pool %d: %w", poolID, err)
	}

	fmt.Printf("Draw %d recorded for pool %d.\n", drawSequence, poolID)
	return nil
}

func main() {
	config.Init()

	rootCmd := &cobra.Command{
		Short: "Bolão administration tool",
		Use:   "bolaoadmin",
	}

	keyCmd := &cobra.Command{
		Short: "Manage authentication keys",
		Use:   "key",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List current keys and their status",
		RunE:  listKeys,
	}

	rotateCmd := &cobra.Command{
		Use:   "rotate",
		Short: "Remove expired keys and add a new key",
		RunE:  rotateKeys,
	}

	keyCmd.AddCommand(listCmd, rotateCmd)
	rootCmd.AddCommand(keyCmd)

	userCmd := &cobra.Command{
		Short: "Manage users",
		Use:   "user",
	}

	addUserCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a new user",
		RunE:  addUser,
	}
	addUserCmd.Flags().StringVar(&userNick, "nick", "", "User's nick")
	addUserCmd.Flags().BoolVar(&userIsAdmin, "admin", false, "Set user as admin")

	deleteUserCmd := &cobra.Command{
		Use:   "delete [nick]",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE:  deleteUser,
	}

	listUserCmd := &cobra.Command{
		Use:   "list",
		Short: "List all users",
		RunE:  listUsers,
	}

	pwCmd := &cobra.Command{
		Use:   "pw",
		Short: "Password-related operations for users",
	}

	checkCmd := &cobra.Command{
		Use:   "check [nick]",
		Short: "Check a user's password",
		Args:  cobra.ExactArgs(1),
		RunE:  checkPassword,
	}

	clean := &cobra.Command{
		Use:   "clean",
		Short: "Remove expired passwords",
		RunE:  cleanPasswords,
	}

	replacePasswordCmd := &cobra.Command{
		Use:   "replace [nick]",
		Short: "Replace a user's password and expire old passwords",
		Args:  cobra.ExactArgs(1),
		RunE:  replacePassword,
	}
	replacePasswordCmd.Flags().Func("expire-time", "Expiration time for old passwords (RFC3339 or duration)", func(s string) error {
		if s == "" {
			expireTime = clock.Now()
			return nil
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			expireTime = t
			return nil
		}
		if d, err := duration.ParseDuration(s); err == nil {
			expireTime = clock.Now().Add(time.Duration(d))
			return nil
		}

		return fmt.Errorf("can't parse %q as a time or duration", s)
	})
	pwCmd.AddCommand(checkCmd, clean, replacePasswordCmd)
	userCmd.AddCommand(addUserCmd, listUserCmd, deleteUserCmd, pwCmd)
	rootCmd.AddCommand(userCmd)

	poolCmd := &cobra.Command{
		Short: "Manage pools",
		Use:   "pool",
	}

	listPoolCmd := &cobra.Command{
		Use:   "list",
		Short: "List all pools",
		RunE:  listPools,
	}

	createPoolCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a pool with house defaults",
		RunE:  createPool,
	}
	createPoolCmd.Flags().StringVar(&poolName, "name", "", "Pool name")
	createPoolCmd.Flags().StringVar(&poolGame, "game", "MEGA_SENA", "Game type")
	createPoolCmd.Flags().IntVar(&poolCapacity, "capacity", 10, "Participant capacity")
	createPoolCmd.Flags().Int64Var(&poolPrice, "price", 0, "Entry price in centavos")
	createPoolCmd.Flags().BoolVar(&poolGated, "gated", false, "Require an access code to join")

	poolCmd.AddCommand(listPoolCmd, createPoolCmd)
	rootCmd.AddCommand(poolCmd)

	codeCmd := &cobra.Command{
		Short: "Manage access codes",
		Use:   "code",
	}

	mintCodeCmd := &cobra.Command{
		Use:   "mint [pool-id]",
		Short: "Mint an access code for a pool",
		Args:  cobra.ExactArgs(1),
		RunE:  mintCode,
	}

	codeCmd.AddCommand(mintCodeCmd)
	rootCmd.AddCommand(codeCmd)

	drawCmd := &cobra.Command{
		Short: "Manage draw results",
		Use:   "draw",
	}

	fetchDrawCmd := &cobra.Command{
		Use:   "fetch [game]",
		Short: "Fetch the latest official result from the Caixa API",
		Args:  cobra.ExactArgs(1),
		RunE:  fetchDraw,
	}

	recordDrawCmd := &cobra.Command{
		Use:   "record [pool-id]",
		Short: "Record an official draw result on a pool",
		Args:  cobra.ExactArgs(1),
		RunE:  recordDraw,
	}
	recordDrawCmd.Flags().IntVar(&drawSequence, "sequence", 0, "Draw sequence number within the pool")
	recordDrawCmd.Flags().StringVar(&drawNumbers, "numbers", "", "Drawn numbers, comma or space separated")
	recordDrawCmd.Flags().BoolVar(&drawOverride, "override", false, "Replace an already recorded draw")

	drawCmd.AddCommand(fetchDrawCmd, recordDrawCmd)
	rootCmd.AddCommand(drawCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
