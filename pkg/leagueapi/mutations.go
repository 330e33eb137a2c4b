package leagueapi

import "context"

// StorePartInWarehouse buys a shop part straight into the team's warehouse.
func (c *Client) StorePartInWarehouse(ctx context.Context, token, partID string) error {
	return c.mutate(ctx, token, "/api/comprar-peca-armazem", map[string]string{
		"peca_id": partID,
	})
}

// RequestInstallFromWarehouse opens an install request for a warehouse part
// on the given car. Installs go through the league's approval queue.
func (c *Client) RequestInstallFromWarehouse(ctx context.Context, token, partID, carID string) error {
	return c.mutate(ctx, token, "/api/garagem/solicitar-instalacao-armazem", map[string]string{
		"peca_id":  partID,
		"carro_id": carID,
	})
}

// InstallPartsOnActiveCar installs the given parts on the team's active car.
func (c *Client) InstallPartsOnActiveCar(ctx context.Context, token string, partIDs []string) error {
	return c.mutate(ctx, token, "/api/instalar-multiplas-pecas-no-carro-ativo", map[string]any{
		"pecas": partIDs,
	})
}

// CreateWarehouseRequests batches install requests for several warehouse parts.
func (c *Client) CreateWarehouseRequests(ctx context.Context, token string, partIDs []string) error {
	return c.mutate(ctx, token, "/api/garagem/criar-multiplas-solicitacoes-armazem", map[string]any{
		"pecas": partIDs,
	})
}

// ActivateCar switches the team's active car after the activation fee cleared.
func (c *Client) ActivateCar(ctx context.Context, token, carID string) error {
	return c.mutate(ctx, token, "/api/ativar-carro", map[string]string{
		"carro_id": carID,
	})
}
