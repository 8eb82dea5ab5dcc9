package service

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/billpayhq/billpay-service/internal/config"
	"github.com/billpayhq/billpay-service/internal/integrations/plaid"
	"github.com/billpayhq/billpay-service/internal/models"
	"github.com/billpayhq/billpay-service/internal/repository"
	"github.com/billpayhq/billpay-service/internal/vault"
)

var (
	// ErrNoAccessToken is returned before any upstream I/O when the user has
	// no stored aggregation credentials.
	ErrNoAccessToken = errors.New("no access token available")

	// ErrDerivedRecord rejects direct deletion of bills/incomes produced by
	// detection or liability sync; they would be silently resurrected on the
	// next run otherwise.
	ErrDerivedRecord = errors.New("record was created by sync and cannot be deleted")

	// ErrTransactionsNotReady translates the upstream product-not-ready
	// condition into an actionable user message.
	ErrTransactionsNotReady = errors.New("transactions not ready yet, please wait a few seconds and refresh again")

	// ErrInvalidCredentials covers both unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Mailer sends bill reminder emails.
type Mailer interface {
	SendBillReminder(to string, bill models.Bill, overdue bool) error
}

// Service handles business logic
type Service struct {
	store  repository.Store
	client plaid.API
	vault  *vault.Vault
	mailer Mailer
	config *config.Config
	log    *logrus.Logger

	now func() time.Time
}

// NewService initializes a new service. The aggregation client and mailer are
// injected so tests can substitute fakes; mailer may be nil when reminders
// are disabled.
func NewService(store repository.Store, client plaid.API, v *vault.Vault, mailer Mailer, cfg *config.Config, log *logrus.Logger) *Service {
	return &Service{
		store:  store,
		client: client,
		vault:  v,
		mailer: mailer,
		config: cfg,
		log:    log,
		now:    time.Now,
	}
}

// normalizeName is the grouping key for detector runs.
func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// titleCase capitalizes each word for display, mirroring how detected names
// are stored.
func titleCase(name string) string {
	words := strings.Fields(name)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

// meanAbs returns the arithmetic mean of the absolute transaction amounts,
// rounded to two decimal places.
func meanAbs(txns []models.Transaction) decimal.Decimal {
	if len(txns) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, txn := range txns {
		sum = sum.Add(txn.Amount.Abs())
	}
	return sum.Div(decimal.NewFromInt(int64(len(txns)))).Round(2)
}

// sortedKeys gives detector runs a deterministic group order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// accessToken decrypts the stored aggregation token for a user.
func (s *Service) accessToken(user *models.User) (string, error) {
	if !user.Linked() {
		return "", ErrNoAccessToken
	}
	token, err := s.vault.Decrypt(*user.AccessToken)
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", ErrNoAccessToken
	}
	return token, nil
}

func strPtr(s string) *string {
	return &s
}
