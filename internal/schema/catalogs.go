// Copyright (c) 2025 The sqlagent Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package schema

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// catalogFile is the on-disk layout of SCHEMA_METADATA_FILE.
//
//	catalogs:
//	  - database: bike_store
//	    tables:
//	      - name: brands
//	        description: |
//	          Stores brand information for bicycles.
type catalogFile struct {
	Catalogs []Catalog `yaml:"catalogs"`
}

// LoadCatalogs reads curated catalogs from a YAML file.
func LoadCatalogs(path string) ([]Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema metadata: %w", err)
	}

	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse schema metadata %s: %w", path, err)
	}

	for i, c := range f.Catalogs {
		if strings.TrimSpace(c.Database) == "" {
			return nil, fmt.Errorf("schema metadata %s: catalog %d has no database name", path, i)
		}
		for j, t := range c.Tables {
			if strings.TrimSpace(t.Name) == "" {
				return nil, fmt.Errorf("schema metadata %s: catalog %q table %d has no name", path, c.Database, j)
			}
			f.Catalogs[i].Tables[j].Description = strings.TrimRight(t.Description, "\n")
		}
	}
	return f.Catalogs, nil
}

// BuiltinCatalogs returns the catalogs shipped with the binary.
func BuiltinCatalogs() []Catalog {
	return []Catalog{bikeStore()}
}

func bikeStore() Catalog {
	return Catalog{
		Database: "bike_store",
		Tables: []Table{
			{Name: "brands", Description: `Stores brand information for bicycles.
Columns:
- brand_id (Integer): Primary Key. Unique identifier for the brand.
- brand_name (Text): Name of the brand (e.g., Trek, Electra).`},
			{Name: "categories", Description: `Stores category information for bicycles (e.g., Road, Mountain).
Columns:
- category_id (Integer): Primary Key. Unique identifier for the category.
- category_name (Text): Name of the category.`},
			{Name: "products", Description: `Stores product information including price and model year.
Columns:
- product_id (Integer): Primary Key.
- product_name (Text): Name of the bicycle.
- brand_id (Integer): Foreign Key referencing brands.
- category_id (Integer): Foreign Key referencing categories.
- model_year (Integer): The year the model was released.
- list_price (Decimal): The listing price of the product.`},
			{Name: "customers", Description: `Stores customer personal and contact information.
Columns:
- customer_id (Integer): Primary Key.
- first_name (Text): Customer's first name.
- last_name (Text): Customer's last name.
- phone (Text): Phone number.
- email (Text): Email address.
- street, city, state, zip_code (Text): Address details.`},
			{Name: "orders", Description: `Stores sales order headers.
Columns:
- order_id (Integer): Primary Key.
- customer_id (Integer): Foreign Key referencing customers.
- order_status (Integer): Status of the order (1=Pending, 2=Processing, 3=Rejected, 4=Completed).
- order_date (Date): When the order was placed.
- required_date (Date): When the order is required.
- shipped_date (Date): When the order was shipped.
- store_id (Integer): Foreign Key referencing stores.
- staff_id (Integer): Foreign Key referencing staffs who processed the order.`},
			{Name: "order_items", Description: `Stores line items for each order.
Columns:
- order_id (Integer): Foreign Key referencing orders.
- item_id (Integer): Line item number.
- product_id (Integer): Foreign Key referencing products.
- quantity (Integer): Quantity ordered.
- list_price (Decimal): Price per unit at time of order.
- discount (Decimal): Discount applied (0.0 to 1.0).

IMPORTANT REVENUE CALCULATION:
- The 'list_price' is the starting price.
- 'discount' is a decimal (e.g., 0.20 for 20%).
- Realized Revenue per item = quantity * list_price * (1 - discount)
- DO NOT just multiply quantity * list_price. You MUST subtract the discount.`},
			{Name: "stocks", Description: `Stores inventory levels for products at specific stores.
Columns:
- store_id (Integer): Foreign Key referencing stores.
- product_id (Integer): Foreign Key referencing products.
- quantity (Integer): Number of units in stock.`},
			{Name: "stores", Description: `Stores information about physical store locations.
Columns:
- store_id (Integer): Primary Key.
- store_name (Text): Name of the store.
- phone, email (Text): Contact info.
- street, city, state, zip_code (Text): Address.`},
			{Name: "staffs", Description: `Stores employee information.
Columns:
- staff_id (Integer): Primary Key.
- first_name, last_name (Text): Name.
- email, phone (Text): Contact.
- active (Integer): 1 = Active, 0 = Inactive.
- store_id (Integer): Store where staff works.
- manager_id (Integer): Self-referencing FK to staffs (who is their manager).`},
		},
	}
}
