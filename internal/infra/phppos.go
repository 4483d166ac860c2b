package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sebastiangaticacl/stvaldivia/internal/model"
)

// PhpPosPayload is the sale shape the legacy PHP POS bridge accepts. The
// bridge is the system of record for historical reporting, so every
// non-test sale is replicated into it after the fact.
type PhpPosPayload struct {
	ExternalID   string             `json:"external_id"`
	RegisterName string             `json:"register_name"`
	EmployeeName string             `json:"employee_name"`
	SaleTime     string             `json:"sale_time"`
	Total        string             `json:"total"`
	PaymentCash  string             `json:"payment_cash"`
	PaymentCard  string             `json:"payment_card"`
	Items        []PhpPosItem       `json:"items"`
}

type PhpPosItem struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

// PhpPosClient replicates ledger sales into the legacy POS over its HTTP
// bridge. Failures here never affect the ledger; the sync worker retries.
type PhpPosClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewPhpPosClient(baseURL string) *PhpPosClient {
	return &PhpPosClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// PushSale sends one sale to the bridge. The bridge dedupes on external_id,
// so re-pushing an already synced sale is harmless.
func (c *PhpPosClient) PushSale(ctx context.Context, sale *model.PosSale) error {
	payload := PhpPosPayload{
		ExternalID:   sale.ID.String(),
		RegisterName: sale.RegisterName,
		EmployeeName: sale.EmployeeName,
		SaleTime:     sale.CreatedAt.Format(time.RFC3339),
		Total:        sale.TotalAmount.StringFixed(2),
		PaymentCash:  sale.PaymentCash.StringFixed(2),
		PaymentCard:  sale.PaymentDebit.Add(sale.PaymentCredit).StringFixed(2),
	}
	for _, it := range sale.Items {
		payload.Items = append(payload.Items, PhpPosItem{
			Name:      it.ProductName,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice.StringFixed(2),
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("phppos: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/sales", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("phppos: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("phppos: bridge unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("phppos: bridge returned %d", resp.StatusCode)
	}
	return nil
}
