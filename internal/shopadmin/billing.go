package shopadmin

import (
	"context"
	"fmt"
	"strings"

	"github.com/parcelpoint/tracking-backend/internal/session"
)

// AppSubscription is one entry from currentAppInstallation.activeSubscriptions.
type AppSubscription struct {
	Name             string  `json:"name"`
	Status           string  `json:"status"`
	TrialDays        int     `json:"trialDays"`
	CurrentPeriodEnd *string `json:"currentPeriodEnd"`
}

// SubscriptionInput describes the plan to purchase. Price is in whole USD.
type SubscriptionInput struct {
	Name      string
	Price     int
	Interval  string
	OneTime   bool
	TrialDays int
	ReturnURL string
}

const activeSubscriptionsQuery = `
query {
  currentAppInstallation {
    activeSubscriptions {
      name
      status
      trialDays
      currentPeriodEnd
    }
  }
}`

type subscriptionsData struct {
	CurrentAppInstallation struct {
		ActiveSubscriptions []AppSubscription `json:"activeSubscriptions"`
	} `json:"currentAppInstallation"`
}

// ActiveSubscriptions returns the shop's active app subscriptions.
func (c *Client) ActiveSubscriptions(ctx context.Context, sess session.Session) ([]AppSubscription, error) {
	data, err := post[subscriptionsData](ctx, c, sess, activeSubscriptionsQuery, nil)
	if err != nil {
		return nil, err
	}
	return data.CurrentAppInstallation.ActiveSubscriptions, nil
}

const createSubscriptionMutation = `
mutation CreateSubscription($name: String!, $lineItems: [AppSubscriptionLineItemInput!]!, $returnUrl: URL!, $trialDays: Int) {
  appSubscriptionCreate(
    name: $name
    lineItems: $lineItems
    returnUrl: $returnUrl
    trialDays: $trialDays
  ) {
    appSubscription {
      id
    }
    confirmationUrl
    userErrors {
      field
      message
    }
  }
}`

type createSubscriptionData struct {
	AppSubscriptionCreate struct {
		AppSubscription struct {
			ID string `json:"id"`
		} `json:"appSubscription"`
		ConfirmationURL string `json:"confirmationUrl"`
		UserErrors      []struct {
			Field   []string `json:"field"`
			Message string   `json:"message"`
		} `json:"userErrors"`
	} `json:"appSubscriptionCreate"`
}

// CreateSubscription opens a subscription (or one-time purchase) and returns
// the confirmation URL the merchant must visit to approve the charge.
func (c *Client) CreateSubscription(ctx context.Context, sess session.Session, input SubscriptionInput) (string, error) {
	price := map[string]any{
		"amount":       input.Price,
		"currencyCode": "USD",
	}
	var plan map[string]any
	if input.OneTime {
		plan = map[string]any{
			"appOneTimePricingDetails": map[string]any{"price": price},
		}
	} else {
		plan = map[string]any{
			"appRecurringPricingDetails": map[string]any{
				"price":    price,
				"interval": input.Interval,
			},
		}
	}

	variables := map[string]any{
		"name":      input.Name,
		"lineItems": []any{map[string]any{"plan": plan}},
		"returnUrl": input.ReturnURL,
		"trialDays": input.TrialDays,
	}
	data, err := post[createSubscriptionData](ctx, c, sess, createSubscriptionMutation, variables)
	if err != nil {
		return "", err
	}

	result := data.AppSubscriptionCreate
	if len(result.UserErrors) > 0 {
		msgs := make([]string, 0, len(result.UserErrors))
		for _, ue := range result.UserErrors {
			msgs = append(msgs, ue.Message)
		}
		return "", fmt.Errorf("shopadmin: subscription rejected: %s", strings.Join(msgs, "; "))
	}
	if result.ConfirmationURL == "" {
		return "", fmt.Errorf("shopadmin: subscription created without confirmation url")
	}
	return result.ConfirmationURL, nil
}
