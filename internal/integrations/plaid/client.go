package plaid

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/billpayhq/billpay-service/internal/config"
)

const apiDate = "2006-01-02"

// Client talks to the aggregation API over its JSON interface.
type Client struct {
	baseURL      string
	clientID     string
	secret       string
	redirectURI  string
	countryCodes []string
	client       *http.Client
	log          *logrus.Logger
}

// NewClient initializes a new aggregation API client
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	baseURL := "https://production.plaid.com"
	if cfg.PlaidEnv == "sandbox" {
		baseURL = "https://sandbox.plaid.com"
	}
	return &Client{
		baseURL:      baseURL,
		clientID:     cfg.PlaidClientID,
		secret:       cfg.PlaidSecret,
		redirectURI:  cfg.PlaidRedirectURI,
		countryCodes: strings.Split(cfg.PlaidCountryCode, ","),
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: log,
	}
}

// NewClientWithBaseURL is used by tests to point the client at a local server.
func NewClientWithBaseURL(baseURL string, cfg *config.Config, log *logrus.Logger) *Client {
	c := NewClient(cfg, log)
	c.baseURL = baseURL
	return c
}

// post sends a JSON request with credentials injected and decodes either the
// success payload or a structured upstream error.
func (c *Client) post(ctx context.Context, path string, body map[string]any, out any) error {
	body["client_id"] = c.clientID
	body["secret"] = c.secret

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{}
		if err := json.Unmarshal(raw, apiErr); err != nil || apiErr.Code == "" {
			return fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, path)
		}
		c.log.Debugf("Aggregation API error on %s: %s", path, apiErr.Code)
		return classifyAPIError(apiErr)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// CreateLinkToken creates a link token for initializing the link flow.
// When the upstream rejects the product list as unauthorized, the rejected
// products are stripped and the request is re-attempted once, immediately.
func (c *Client) CreateLinkToken(ctx context.Context, userID int64, products []string) (string, error) {
	c.log.Infof("Link token request: products=%v user_id=%d", products, userID)

	attempt := append([]string(nil), products...)
	var token string

	backoff := retry.WithMaxRetries(1, retry.NewConstant(time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		body := map[string]any{
			"client_name":   "BillPay App",
			"language":      "en",
			"country_codes": c.countryCodes,
			"user":          map[string]string{"client_user_id": strconv.FormatInt(userID, 10)},
			"products":      attempt,
		}
		if c.redirectURI != "" {
			body["redirect_uri"] = c.redirectURI
		}

		var out struct {
			LinkToken string `json:"link_token"`
		}
		if err := c.post(ctx, "/link/token/create", body, &out); err != nil {
			var notAuth *ProductsNotAuthorizedError
			if errors.As(err, &notAuth) {
				filtered := filterProducts(attempt, notAuth.Products)
				if len(filtered) == 0 {
					c.log.Error("All requested products unauthorized; falling back to transactions")
					filtered = []string{"transactions"}
				} else {
					c.log.Warnf("Retrying link token creation with products filtered: %v -> %v", attempt, filtered)
				}
				attempt = filtered
				return retry.RetryableError(err)
			}
			return err
		}
		token = out.LinkToken
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to create link token: %w", err)
	}
	return token, nil
}

func filterProducts(products, rejected []string) []string {
	drop := make(map[string]bool, len(rejected))
	for _, p := range rejected {
		drop[p] = true
	}
	var kept []string
	for _, p := range products {
		if !drop[p] {
			kept = append(kept, p)
		}
	}
	return kept
}

// ExchangePublicToken exchanges a public token for an access token
func (c *Client) ExchangePublicToken(ctx context.Context, publicToken string) (ExchangeResult, error) {
	var out struct {
		AccessToken string `json:"access_token"`
		ItemID      string `json:"item_id"`
	}
	body := map[string]any{"public_token": publicToken}
	if err := c.post(ctx, "/item/public_token/exchange", body, &out); err != nil {
		return ExchangeResult{}, fmt.Errorf("failed to exchange public token: %w", err)
	}
	return ExchangeResult{AccessToken: out.AccessToken, ItemID: out.ItemID}, nil
}

type wireBalances struct {
	Current         *decimal.Decimal `json:"current"`
	Available       *decimal.Decimal `json:"available"`
	ISOCurrencyCode *string          `json:"iso_currency_code"`
}

type wireAccount struct {
	AccountID    string       `json:"account_id"`
	Name         string       `json:"name"`
	OfficialName *string      `json:"official_name"`
	Type         string       `json:"type"`
	Subtype      *string      `json:"subtype"`
	Mask         *string      `json:"mask"`
	Balances     wireBalances `json:"balances"`
}

func (a wireAccount) normalize() AccountData {
	data := AccountData{
		AccountID:        a.AccountID,
		Name:             a.Name,
		OfficialName:     a.OfficialName,
		Type:             a.Type,
		Subtype:          a.Subtype,
		Mask:             a.Mask,
		CurrentBalance:   a.Balances.Current,
		AvailableBalance: a.Balances.Available,
		ISOCurrencyCode:  "USD",
	}
	if a.Balances.ISOCurrencyCode != nil && *a.Balances.ISOCurrencyCode != "" {
		data.ISOCurrencyCode = *a.Balances.ISOCurrencyCode
	}
	if data.Type == "" {
		data.Type = "unknown"
	}
	return data
}

// GetAccounts fetches the linked accounts with balances
func (c *Client) GetAccounts(ctx context.Context, accessToken string) ([]AccountData, error) {
	var out struct {
		Accounts []wireAccount `json:"accounts"`
	}
	body := map[string]any{"access_token": accessToken}
	if err := c.post(ctx, "/accounts/get", body, &out); err != nil {
		return nil, fmt.Errorf("failed to fetch accounts: %w", err)
	}

	accounts := make([]AccountData, 0, len(out.Accounts))
	for _, a := range out.Accounts {
		accounts = append(accounts, a.normalize())
	}
	return accounts, nil
}

type wireLocation struct {
	City       *string `json:"city"`
	Region     *string `json:"region"`
	PostalCode *string `json:"postal_code"`
	Country    *string `json:"country"`
}

func (l wireLocation) join() *string {
	var parts []string
	for _, p := range []*string{l.City, l.Region, l.PostalCode, l.Country} {
		if p != nil && *p != "" {
			parts = append(parts, *p)
		}
	}
	if len(parts) == 0 {
		return nil
	}
	joined := strings.Join(parts, ", ")
	return &joined
}

type wireTransaction struct {
	TransactionID  string          `json:"transaction_id"`
	AccountID      string          `json:"account_id"`
	Name           string          `json:"name"`
	Amount         decimal.Decimal `json:"amount"`
	Date           string          `json:"date"`
	Pending        bool            `json:"pending"`
	CategoryID     *string         `json:"category_id"`
	PaymentChannel *string         `json:"payment_channel"`
	MerchantName   *string         `json:"merchant_name"`
	Location       wireLocation    `json:"location"`

	PersonalFinanceCategory *struct {
		Primary string `json:"primary"`
	} `json:"personal_finance_category"`
}

// GetTransactions fetches transactions in [start, end], up to 500 entries
func (c *Client) GetTransactions(ctx context.Context, accessToken string, start, end time.Time) ([]TransactionData, error) {
	var out struct {
		Transactions []wireTransaction `json:"transactions"`
	}
	body := map[string]any{
		"access_token": accessToken,
		"start_date":   start.Format(apiDate),
		"end_date":     end.Format(apiDate),
		"options": map[string]any{
			"count":                             500,
			"include_personal_finance_category": true,
		},
	}
	if err := c.post(ctx, "/transactions/get", body, &out); err != nil {
		return nil, fmt.Errorf("failed to fetch transactions: %w", err)
	}

	txns := make([]TransactionData, 0, len(out.Transactions))
	for _, t := range out.Transactions {
		date, err := time.Parse(apiDate, t.Date)
		if err != nil {
			return nil, fmt.Errorf("invalid transaction date %q: %w", t.Date, err)
		}
		data := TransactionData{
			TransactionID:  t.TransactionID,
			AccountID:      t.AccountID,
			Name:           t.Name,
			Amount:         t.Amount,
			Date:           date,
			Pending:        t.Pending,
			CategoryID:     t.CategoryID,
			PaymentChannel: t.PaymentChannel,
			MerchantName:   t.MerchantName,
			Location:       t.Location.join(),
		}
		if t.PersonalFinanceCategory != nil && t.PersonalFinanceCategory.Primary != "" {
			category := t.PersonalFinanceCategory.Primary
			data.Category = &category
		}
		txns = append(txns, data)
	}
	return txns, nil
}

type wireDate string

func (d wireDate) parse() *time.Time {
	if d == "" {
		return nil
	}
	t, err := time.Parse(apiDate, string(d))
	if err != nil {
		return nil
	}
	return &t
}

// GetLiabilities fetches the liability snapshot (credit, student, mortgage)
func (c *Client) GetLiabilities(ctx context.Context, accessToken string) (LiabilitySnapshot, error) {
	var out struct {
		Accounts    []wireAccount `json:"accounts"`
		Liabilities struct {
			Credit []struct {
				AccountID            string           `json:"account_id"`
				MinimumPaymentAmount *decimal.Decimal `json:"minimum_payment_amount"`
				LastStatementBalance *decimal.Decimal `json:"last_statement_balance"`
				NextPaymentDueDate   wireDate         `json:"next_payment_due_date"`
			} `json:"credit"`
			Student []struct {
				AccountID            string           `json:"account_id"`
				LoanName             *string          `json:"loan_name"`
				MinimumPaymentAmount *decimal.Decimal `json:"minimum_payment_amount"`
				NextPaymentDueDate   wireDate         `json:"next_payment_due_date"`
			} `json:"student"`
			Mortgage []struct {
				AccountID          string           `json:"account_id"`
				NextMonthlyPayment *decimal.Decimal `json:"next_monthly_payment"`
				NextPaymentDueDate wireDate         `json:"next_payment_due_date"`
			} `json:"mortgage"`
		} `json:"liabilities"`
	}
	body := map[string]any{"access_token": accessToken}
	if err := c.post(ctx, "/liabilities/get", body, &out); err != nil {
		return LiabilitySnapshot{}, fmt.Errorf("failed to fetch liabilities: %w", err)
	}

	snapshot := LiabilitySnapshot{AccountNames: make(map[string]string, len(out.Accounts))}
	for _, a := range out.Accounts {
		snapshot.AccountNames[a.AccountID] = a.Name
	}
	for _, cr := range out.Liabilities.Credit {
		snapshot.Credit = append(snapshot.Credit, CreditLiability{
			AccountID:            cr.AccountID,
			MinimumPaymentAmount: cr.MinimumPaymentAmount,
			LastStatementBalance: cr.LastStatementBalance,
			NextPaymentDueDate:   cr.NextPaymentDueDate.parse(),
		})
	}
	for _, s := range out.Liabilities.Student {
		snapshot.Student = append(snapshot.Student, StudentLiability{
			AccountID:            s.AccountID,
			LoanName:             s.LoanName,
			MinimumPaymentAmount: s.MinimumPaymentAmount,
			NextPaymentDueDate:   s.NextPaymentDueDate.parse(),
		})
	}
	for _, m := range out.Liabilities.Mortgage {
		snapshot.Mortgage = append(snapshot.Mortgage, MortgageLiability{
			AccountID:          m.AccountID,
			NextMonthlyPayment: m.NextMonthlyPayment,
			NextPaymentDueDate: m.NextPaymentDueDate.parse(),
		})
	}
	return snapshot, nil
}
