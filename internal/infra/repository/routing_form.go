package repository

import (
	"context"
	"encoding/json"

	"schedcore/internal/domain/assignment"
	"schedcore/internal/infra/db"
)

type RoutingFormRepository struct {
	db db.DBTX
}

func NewRoutingFormRepository(dbtx db.DBTX) *RoutingFormRepository {
	return &RoutingFormRepository{db: dbtx}
}

// routeRecord is the JSONB shape routes are stored in. The attribute query
// is flattened to matched filters at submission time, so reads stay cheap.
type routeRecord struct {
	ID               string `json:"id"`
	AttributeFilters []struct {
		AttributeID string `json:"attributeId"`
		Value       string `json:"value"`
	} `json:"attributeFilters"`
}

// FindResponse loads a routing-form response with the routes of its parent
// form decoded from JSONB.
func (r *RoutingFormRepository) FindResponse(ctx context.Context, responseID int64) (*assignment.FormResponse, error) {
	var (
		resp      assignment.FormResponse
		rawRoutes []byte
	)
	err := r.db.QueryRow(ctx,
		`SELECT fr.id, fr.chosen_route_id, f.routes
		 FROM routing_form_responses fr
		 JOIN routing_forms f ON f.id = fr.form_id
		 WHERE fr.id = $1`, responseID,
	).Scan(&resp.ID, &resp.ChosenRouteID, &rawRoutes)
	if err != nil {
		return nil, classifyErr("failed to find routing form response", err)
	}

	var records []routeRecord
	if err := json.Unmarshal(rawRoutes, &records); err != nil {
		return nil, classifyErr("failed to decode routing form routes", err)
	}
	for _, rec := range records {
		route := assignment.Route{ID: rec.ID}
		for _, f := range rec.AttributeFilters {
			route.AttributeFilters = append(route.AttributeFilters, assignment.AttributeFilter{
				AttributeID: f.AttributeID,
				Value:       f.Value,
			})
		}
		resp.Form.Routes = append(resp.Form.Routes, route)
	}
	return &resp, nil
}

// UserAttributes returns the attribute values assigned to a user within a
// team, one Attribute per attribute with its values aggregated.
func (r *RoutingFormRepository) UserAttributes(ctx context.Context, userID, teamID int64) ([]assignment.Attribute, error) {
	rows, err := r.db.Query(ctx,
		`SELECT a.id, a.name, array_agg(av.value ORDER BY av.value)
		 FROM attributes a
		 JOIN attribute_values av ON av.attribute_id = a.id
		 JOIN user_attribute_values uav ON uav.attribute_value_id = av.id
		 WHERE uav.user_id = $1 AND a.team_id = $2
		 GROUP BY a.id, a.name
		 ORDER BY a.name`, userID, teamID)
	if err != nil {
		return nil, classifyErr("failed to load user attributes", err)
	}
	defer rows.Close()

	var attrs []assignment.Attribute
	for rows.Next() {
		var attr assignment.Attribute
		if err := rows.Scan(&attr.ID, &attr.Name, &attr.Values); err != nil {
			return nil, classifyErr("failed to scan user attribute", err)
		}
		attrs = append(attrs, attr)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyErr("failed to iterate user attributes", err)
	}
	return attrs, nil
}
