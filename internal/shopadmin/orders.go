package shopadmin

import (
	"context"
	"fmt"

	"github.com/parcelpoint/tracking-backend/internal/session"
)

// Fulfillment carries the tracking details of one shipment. All fields are
// nullable on the Admin API and are passed through as-is.
type Fulfillment struct {
	TrackingCompany *string `json:"trackingCompany"`
	TrackingNumber  *string `json:"trackingNumber"`
	TrackingURL     *string `json:"trackingUrl"`
}

// Order is the subset of the Admin API order used for tracking lookups.
// Fulfillments arrive in creation order, oldest first.
type Order struct {
	ID           string
	Name         string
	Email        string
	Fulfillments []Fulfillment
}

const orderTrackingQuery = `
query trackOrder($query: String!) {
  orders(first: 1, query: $query) {
    edges {
      node {
        id
        name
        email
        fulfillments(first: 1) {
          edges {
            node {
              trackingCompany
              trackingNumber
              trackingUrl
            }
          }
        }
      }
    }
  }
}`

type ordersData struct {
	Orders struct {
		Edges []struct {
			Node struct {
				ID           string `json:"id"`
				Name         string `json:"name"`
				Email        string `json:"email"`
				Fulfillments struct {
					Edges []struct {
						Node Fulfillment `json:"node"`
					} `json:"edges"`
				} `json:"fulfillments"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"orders"`
}

// FindOrder fetches the first order matching the order name and email
// filter, along with its first fulfillment. A nil order means no match;
// malformed order names simply yield no match.
func (c *Client) FindOrder(ctx context.Context, sess session.Session, orderName, email string) (*Order, error) {
	variables := map[string]any{
		"query": fmt.Sprintf("name:%s email:%s", orderName, email),
	}
	data, err := post[ordersData](ctx, c, sess, orderTrackingQuery, variables)
	if err != nil {
		return nil, err
	}
	if len(data.Orders.Edges) == 0 {
		return nil, nil
	}

	node := data.Orders.Edges[0].Node
	order := &Order{
		ID:    node.ID,
		Name:  node.Name,
		Email: node.Email,
	}
	for _, edge := range node.Fulfillments.Edges {
		order.Fulfillments = append(order.Fulfillments, edge.Node)
	}
	return order, nil
}
