// Copyright 2023 uhppoted@twyst.co.za. All rights reserved.
// Use of this source code is governed by an MIT-style license
// that can be found in the LICENSE file.

/*
Package uhppoted-app-wordpress publishes the rows of a Google Sheets worksheet as WordPress posts, optionally
notifying a webhook of each new post.

uhppoted-app-wordpress can be used from the command line but is really intended to be run from cron (or as a
daemon) to keep a WordPress site in step with a shared worksheet and to prune stale rows from the worksheet.

uhppoted-app-wordpress supports the following commands:

  - authorise, to authorise application access to the Google Sheets worksheet
  - sync-posts, to create or update a WordPress post for each worksheet row
  - prune-rows, to delete worksheet rows dated before the retention period
  - setup-triggers, to register the hourly sync-posts and daily prune-rows crontab entries
  - daemon, to run sync-posts and prune-rows on schedule with an optional status endpoint
  - get, to download the worksheet as a TSV file
  - append-rows, to append the rows of a TSV file to the worksheet
  - config, to display or save the effective configuration
*/
package wordpress
