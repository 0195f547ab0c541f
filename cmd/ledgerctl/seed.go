package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/google/subcommands"
	"github.com/mmdatafocus/ledger_backend/config"
	"github.com/mmdatafocus/ledger_backend/models"
	"github.com/mmdatafocus/ledger_backend/utils"
	"gorm.io/gorm"
)

type seedUser struct {
	email, name, password string
	role                  models.UserRole
}

type seedParty struct {
	name, phone, email, address, notes string
	creator                            int
}

type seedTransaction struct {
	txType  string
	date    string
	party   int
	creator int
	weight  string
	payment string
	notes   string
	buy     []models.NewBuyItem
	sell    []models.NewSellItem
}

var seedUsers = []seedUser{
	{"admin@ledger.com", "Admin User", "admin123", models.UserRoleAdmin},
	{"user@ledger.com", "Regular User", "user123", models.UserRoleUser},
}

var seedParties = []seedParty{
	{"Rajesh Traders", "9876543210", "rajesh@example.com", "Shop No. 12, Market Street, Mumbai, Maharashtra 400001", "Regular customer, prefers cash payments", 0},
	{"Suresh & Co", "9123456789", "suresh@example.com", "Building A-5, Industrial Area, Delhi 110001", "Premium client, bulk orders", 0},
	{"Priya Enterprises", "9988776655", "priya@example.com", "Tech Park, Whitefield, Bangalore 560066", "", 1},
	{"Amit Materials", "9111222333", "amit@example.com", "Warehouse 7, Pimpri, Pune 411018", "Bulk orders, monthly billing", 0},
	{"Deepak Trading", "9444555666", "deepak@example.com", "Anna Nagar, Chennai 600040", "", 1},
}

func buyItem(hny, black string) []models.NewBuyItem {
	return []models.NewBuyItem{{HnyColor: utils.FlexString(hny), BlackColor: utils.FlexString(black)}}
}

func sellItem(code, payment, shoesHny, sheetHny, shoesBlack, sheetBlack string) []models.NewSellItem {
	return []models.NewSellItem{{
		ItemCode:   utils.FlexString(code),
		Payment:    utils.FlexString(payment),
		ShoesHny:   utils.FlexString(shoesHny),
		SheetHny:   utils.FlexString(sheetHny),
		ShoesBlack: utils.FlexString(shoesBlack),
		SheetBlack: utils.FlexString(sheetBlack),
	}}
}

var seedTransactions = []seedTransaction{
	{txType: "buy", date: "2025-12-01", party: 0, creator: 0, weight: "40", payment: "17550", notes: "Good quality material", buy: buyItem("25", "15")},
	{txType: "buy", date: "2025-12-03", party: 2, creator: 1, weight: "50", payment: "21400", buy: buyItem("30", "20")},
	{txType: "buy", date: "2025-12-05", party: 4, creator: 1, weight: "40", payment: "17660", buy: buyItem("22", "18")},
	{txType: "buy", date: "2025-12-07", party: 1, creator: 1, weight: "44", payment: "19232", notes: "Partial payment received", buy: buyItem("28", "16")},
	{txType: "buy", date: "2025-12-09", party: 3, creator: 1, weight: "43", payment: "18866", notes: "Cash payment", buy: buyItem("24", "19")},
	{txType: "buy", date: "2025-12-11", party: 0, creator: 0, weight: "43", payment: "19270", buy: buyItem("26", "17")},

	{txType: "sell", date: "2025-12-02", party: 1, creator: 0, weight: "30", payment: "14100", sell: sellItem("SHOES-HNY-001", "14100", "15", "5", "8", "2")},
	{txType: "sell", date: "2025-12-04", party: 3, creator: 0, weight: "27", payment: "12870", notes: "Urgent delivery required", sell: sellItem("SHEET-BLK-001", "12870", "10", "5", "7", "5")},
	{txType: "sell", date: "2025-12-06", party: 0, creator: 0, weight: "32", payment: "15100", notes: "Premium grade material", sell: sellItem("MIXED-001", "15100", "12", "6", "9", "5")},
	{txType: "sell", date: "2025-12-08", party: 2, creator: 0, weight: "27", payment: "13035", sell: sellItem("SHOES-BLK-001", "13035", "11", "5", "8", "3")},
	{txType: "sell", date: "2025-12-10", party: 4, creator: 0, weight: "32", payment: "15226", sell: sellItem("PREMIUM-001", "15226", "13", "6", "9", "4")},
}

type seedCmd struct {
	force bool
}

func (*seedCmd) Name() string     { return "seed" }
func (*seedCmd) Synopsis() string { return "load demo users, parties and transactions" }
func (*seedCmd) Usage() string {
	return `ledgerctl seed [-force]

  Creates 2 users, 5 parties and 11 transactions (6 buy, 5 sell). Existing
  users and parties are reused; transactions are skipped when the ledger
  already has some, unless -force is given.
`
}

func (c *seedCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.force, "force", false, "Add the demo transactions even if the ledger is not empty.")
}

func (c *seedCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := connect(); err != nil {
		return fail("%v", err)
	}
	db := config.GetDB()
	ctx = utils.SetUserRoleInContext(ctx, string(models.UserRoleAdmin))

	users := make([]*models.User, 0, len(seedUsers))
	for _, su := range seedUsers {
		var existing models.User
		err := db.WithContext(ctx).Where("email = ?", su.email).Take(&existing).Error
		switch {
		case err == nil:
			users = append(users, &existing)
			continue
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fail("lookup user %s: %v", su.email, err)
		}
		u, err := models.CreateUser(ctx, &models.NewUser{
			Email:    su.email,
			Name:     su.name,
			Password: su.password,
			Role:     string(su.role),
		}, "")
		if err != nil {
			return fail("create user %s: %v", su.email, err)
		}
		users = append(users, u)
	}
	fmt.Printf("users: %d\n", len(users))

	parties := make([]*models.Party, 0, len(seedParties))
	for _, sp := range seedParties {
		var existing models.Party
		err := db.WithContext(ctx).Where("name = ?", sp.name).Order("created_at asc").Take(&existing).Error
		switch {
		case err == nil:
			parties = append(parties, &existing)
			continue
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fail("lookup party %s: %v", sp.name, err)
		}
		p, err := models.CreateParty(ctx, &models.NewParty{
			Name:      sp.name,
			Phone:     sp.phone,
			Email:     sp.email,
			Address:   sp.address,
			Notes:     sp.notes,
			CreatedBy: users[sp.creator].ID,
		}, "")
		if err != nil {
			return fail("create party %s: %v", sp.name, err)
		}
		parties = append(parties, p)
	}
	fmt.Printf("parties: %d\n", len(parties))

	var count int64
	if err := db.WithContext(ctx).Model(&models.Transaction{}).Count(&count).Error; err != nil {
		return fail("count transactions: %v", err)
	}
	if count > 0 && !c.force {
		fmt.Printf("transactions: %d already present, skipping\n", count)
		return subcommands.ExitSuccess
	}

	for i, st := range seedTransactions {
		party := parties[st.party]
		txCtx := utils.SetUserIdInContext(ctx, users[st.creator].ID)
		_, err := models.CreateTransaction(txCtx, &models.NewTransaction{
			Type:         st.txType,
			Date:         st.date,
			PartyId:      party.ID,
			Phone:        utils.FlexString(party.Phone),
			TotalWeight:  utils.FlexString(st.weight),
			TotalPayment: utils.FlexString(st.payment),
			Notes:        st.notes,
			BuyItems:     st.buy,
			SellItems:    st.sell,
		}, models.TransactionImages{})
		if err != nil {
			return fail("create transaction %d: %v", i+1, err)
		}
	}
	fmt.Printf("transactions: %d created\n", len(seedTransactions))
	return subcommands.ExitSuccess
}
